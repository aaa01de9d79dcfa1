package queue

import "time"

// Item represents one frontier entry. Depth is the parent's depth plus
// one; the seed enters at depth zero.
type Item struct {
	URL       string
	Depth     int
	ParentURL string
	Timestamp time.Time
}
