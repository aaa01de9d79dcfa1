// Package queue provides the FIFO frontier for the crawl engine.
package queue

// Frontier defines the interface for the pending-work queue. Ordering is
// strictly first-in first-out so that breadth-first traversal holds at
// concurrency degree 1. The frontier does not deduplicate; admission
// control happens in the state manager before Push.
type Frontier interface {
	// Push appends an entry to the tail
	Push(item *Item) error

	// Pop removes and returns the head entry without blocking
	Pop() (*Item, error)

	// PopWait removes and returns the head entry, blocking while empty
	PopWait() (*Item, error)

	// Peek returns the head entry without removing it
	Peek() (*Item, error)

	// Len returns the number of pending entries
	Len() int

	// IsEmpty returns true if no entries are pending
	IsEmpty() bool

	// Clear removes all pending entries
	Clear() error

	// Close closes the frontier; blocked and future pops fail
	Close() error

	// Snapshot returns the pending entries in order
	Snapshot() []Item
}
