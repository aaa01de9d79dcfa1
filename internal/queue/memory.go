package queue

import (
	"errors"
	"sync"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
	ErrQueueFull   = errors.New("queue at capacity")
)

// MemoryQueue is a thread-safe in-memory FIFO frontier. Entries come back
// in exactly the order they were pushed. Once closed, pops fail even if
// entries remain: closing on cancellation discards the frontier.
type MemoryQueue struct {
	mu       sync.Mutex
	items    []*Item
	head     int
	closed   bool
	cond     *sync.Cond
	capacity int
}

// NewMemoryQueue creates a new in-memory frontier. A capacity of zero
// means unbounded.
func NewMemoryQueue(capacity int) *MemoryQueue {
	mq := &MemoryQueue{
		items:    make([]*Item, 0),
		capacity: capacity,
	}
	mq.cond = sync.NewCond(&mq.mu)
	return mq
}

// Push appends an entry to the tail.
func (mq *MemoryQueue) Push(item *Item) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return ErrQueueClosed
	}

	if mq.capacity > 0 && len(mq.items)-mq.head >= mq.capacity {
		return ErrQueueFull
	}

	mq.items = append(mq.items, item)
	mq.cond.Signal()
	return nil
}

// Pop removes and returns the head entry without blocking.
func (mq *MemoryQueue) Pop() (*Item, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil, ErrQueueClosed
	}

	if mq.head >= len(mq.items) {
		return nil, ErrQueueEmpty
	}

	return mq.popLocked(), nil
}

// PopWait removes and returns the head entry, blocking while the frontier
// is empty. It returns ErrQueueClosed once the frontier is closed.
func (mq *MemoryQueue) PopWait() (*Item, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	for mq.head >= len(mq.items) && !mq.closed {
		mq.cond.Wait()
	}

	if mq.closed {
		return nil, ErrQueueClosed
	}

	return mq.popLocked(), nil
}

// popLocked removes the head entry. Callers hold mq.mu and have checked
// that an entry exists.
func (mq *MemoryQueue) popLocked() *Item {
	item := mq.items[mq.head]
	mq.items[mq.head] = nil
	mq.head++

	// Reclaim the drained prefix once it dominates the backing slice.
	if mq.head > 64 && mq.head*2 >= len(mq.items) {
		remaining := len(mq.items) - mq.head
		copy(mq.items, mq.items[mq.head:])
		for i := remaining; i < len(mq.items); i++ {
			mq.items[i] = nil
		}
		mq.items = mq.items[:remaining]
		mq.head = 0
	}

	return item
}

// Peek returns the head entry without removing it.
func (mq *MemoryQueue) Peek() (*Item, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil, ErrQueueClosed
	}

	if mq.head >= len(mq.items) {
		return nil, ErrQueueEmpty
	}

	return mq.items[mq.head], nil
}

// Len returns the number of pending entries.
func (mq *MemoryQueue) Len() int {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.items) - mq.head
}

// IsEmpty returns true if no entries are pending.
func (mq *MemoryQueue) IsEmpty() bool {
	return mq.Len() == 0
}

// Clear removes all pending entries.
func (mq *MemoryQueue) Clear() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	mq.items = make([]*Item, 0)
	mq.head = 0
	return nil
}

// Close closes the frontier and wakes all blocked pops.
func (mq *MemoryQueue) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	mq.closed = true
	mq.cond.Broadcast()
	return nil
}

// Snapshot returns the pending entries in order, for persistence.
func (mq *MemoryQueue) Snapshot() []Item {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	out := make([]Item, 0, len(mq.items)-mq.head)
	for _, item := range mq.items[mq.head:] {
		out = append(out, *item)
	}
	return out
}
