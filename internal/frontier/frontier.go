// Package frontier owns the breadth-first work queue and the visited
// set of one crawl run. Both structures are owned by the single
// scheduler goroutine, so no locking happens here; a concurrent-worker
// redesign would have to make MarkVisited atomic.
package frontier

// Task is one unit of crawl work: a URL and the depth it was
// discovered at. Created on discovery, consumed exactly once.
type Task struct {
	URL   string
	Depth int
}

type Frontier struct {
	queue   []Task
	head    int
	visited map[string]struct{}
}

func New() *Frontier {
	return &Frontier{visited: make(map[string]struct{})}
}

// Push appends a task in FIFO order. Duplicate URLs may be pushed; the
// visited check at dequeue time is what guarantees single processing.
func (f *Frontier) Push(url string, depth int) {
	f.queue = append(f.queue, Task{URL: url, Depth: depth})
}

// Pop removes the oldest task. The second return is false when the
// queue is empty.
func (f *Frontier) Pop() (Task, bool) {
	if f.head >= len(f.queue) {
		return Task{}, false
	}
	task := f.queue[f.head]
	f.queue[f.head] = Task{}
	f.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 1024 && f.head*2 >= len(f.queue) {
		f.queue = append([]Task(nil), f.queue[f.head:]...)
		f.head = 0
	}
	return task, true
}

func (f *Frontier) Len() int {
	return len(f.queue) - f.head
}

// MarkVisited records url and reports whether it was new. The caller
// marks at dequeue time, before fetching, so later duplicates of the
// same URL are dropped without consuming budget.
func (f *Frontier) MarkVisited(url string) bool {
	if _, seen := f.visited[url]; seen {
		return false
	}
	f.visited[url] = struct{}{}
	return true
}

func (f *Frontier) Visited(url string) bool {
	_, seen := f.visited[url]
	return seen
}

func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
