package stringset

import (
	"strings"
	"sync"
)

// StringFilter remembers every string it has seen and answers duplicate
// queries. Matching is case-insensitive so host-casing variants of the
// same URL collapse to one entry.
type StringFilter struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewStringFilter() *StringFilter {
	return &StringFilter{seen: make(map[string]struct{})}
}

// Duplicate records value and reports whether it was already present.
// The first call for a given value returns false, every later call true.
func (f *StringFilter) Duplicate(value string) bool {
	key := strings.ToLower(value)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[key]; ok {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

// Contains reports membership without recording the value.
func (f *StringFilter) Contains(value string) bool {
	key := strings.ToLower(value)

	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok := f.seen[key]
	return ok
}

// Len returns the number of distinct values recorded so far.
func (f *StringFilter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.seen)
}
