package valueobjects

import (
	"fmt"
	"sync"
)

// idPrefix is the prefix for locally allocated node identifiers.
const idPrefix = "input"

// Allocator issues unique, monotonically increasing node identifiers.
// Allocation cannot fail; every call returns an identifier strictly
// greater than any previously issued or resumed-from one.
type Allocator struct {
	mu   sync.Mutex
	next int
}

// NewAllocator creates an allocator whose first identifier is "input-<start>"
func NewAllocator(start int) *Allocator {
	if start < 1 {
		start = 1
	}
	return &Allocator{next: start}
}

// Next returns a fresh NodeID and advances the counter
func (a *Allocator) Next() NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := NodeID{value: fmt.Sprintf("%s-%d", idPrefix, a.next)}
	a.next++
	return id
}

// Reset sets the counter to n, used when starting a fresh graph
func (a *Allocator) Reset(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n < 1 {
		n = 1
	}
	a.next = n
}

// ResumeFrom sets the counter to one past the highest ordinal observed
// in a loaded snapshot. A resume below the current counter is ignored so
// identifiers never repeat within a process lifetime.
func (a *Allocator) ResumeFrom(maxSeen int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if maxSeen+1 > a.next {
		a.next = maxSeen + 1
	}
}

// Peek returns the ordinal the next allocation will use
func (a *Allocator) Peek() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
