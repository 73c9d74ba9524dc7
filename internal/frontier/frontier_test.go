package frontier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFIFOOrder(t *testing.T) {
	f := New()
	f.Push("http://h/a", 0)
	f.Push("http://h/b", 1)
	f.Push("http://h/c", 1)

	for _, want := range []string{"http://h/a", "http://h/b", "http://h/c"} {
		task, ok := f.Pop()
		assert.True(t, ok)
		assert.Equal(t, want, task.URL)
	}

	_, ok := f.Pop()
	assert.False(t, ok, "drained queue reports empty")
	assert.Equal(t, 0, f.Len())
}

func TestMarkVisitedOnce(t *testing.T) {
	f := New()
	assert.True(t, f.MarkVisited("http://h/a"), "first mark is new")
	assert.False(t, f.MarkVisited("http://h/a"), "second mark is a duplicate")
	assert.True(t, f.Visited("http://h/a"))
	assert.False(t, f.Visited("http://h/b"))
	assert.Equal(t, 1, f.VisitedCount())
}

func TestDepthTravelsWithTask(t *testing.T) {
	f := New()
	f.Push("http://h/deep", 3)
	task, ok := f.Pop()
	assert.True(t, ok)
	assert.Equal(t, 3, task.Depth)
}

func TestQueueCompaction(t *testing.T) {
	f := New()
	for i := 0; i < 5000; i++ {
		f.Push(fmt.Sprintf("http://h/%d", i), 0)
	}
	for i := 0; i < 5000; i++ {
		task, ok := f.Pop()
		assert.True(t, ok)
		assert.Equal(t, fmt.Sprintf("http://h/%d", i), task.URL)
	}
	assert.Equal(t, 0, f.Len())
}
