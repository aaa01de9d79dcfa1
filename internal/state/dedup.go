package state

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduplicator tracks which URLs have already been admitted to the crawl.
// A bloom filter answers the common "never seen" case without touching the
// exact set; the map resolves the filter's false positives so membership
// answers are always exact.
type Deduplicator struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
	count  int
	fpRate float64
}

// NewDeduplicator creates a deduplicator sized for the expected number of
// URLs. The bloom filter is tuned for a 0.1% false positive rate.
func NewDeduplicator(expectedURLs int) *Deduplicator {
	if expectedURLs < 1000 {
		expectedURLs = 1000
	}

	fpRate := 0.001

	return &Deduplicator{
		filter: bloom.NewWithEstimates(uint(expectedURLs), fpRate),
		exact:  make(map[string]struct{}),
		fpRate: fpRate,
	}
}

// AddIfNew marks the URL as seen and reports whether it was new. The check
// and the insert happen under one lock so concurrent workers cannot both
// claim the same URL.
func (d *Deduplicator) AddIfNew(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addLocked(url)
}

// Add marks the URL as seen.
func (d *Deduplicator) Add(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addLocked(url)
}

func (d *Deduplicator) addLocked(url string) bool {
	if _, exists := d.exact[url]; exists {
		return false
	}
	d.filter.AddString(url)
	d.exact[url] = struct{}{}
	d.count++
	return true
}

// HasSeen reports whether the URL has been added before.
func (d *Deduplicator) HasSeen(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// A bloom miss is definitive; only a hit needs the exact check.
	if !d.filter.TestString(url) {
		return false
	}

	_, exists := d.exact[url]
	return exists
}

// Count returns the number of distinct URLs added.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.count
}

// Reset clears the deduplicator back to its initial empty condition.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.filter.ClearAll()
	d.exact = make(map[string]struct{})
	d.count = 0
}

// GetAll returns every URL added, in no particular order.
func (d *Deduplicator) GetAll() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	urls := make([]string, 0, len(d.exact))
	for url := range d.exact {
		urls = append(urls, url)
	}
	return urls
}

// AddBatch marks a set of URLs as seen, used when restoring a session.
func (d *Deduplicator) AddBatch(urls []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, url := range urls {
		d.addLocked(url)
	}
}

// FalsePositiveRate returns the false positive rate the filter was sized for.
func (d *Deduplicator) FalsePositiveRate() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fpRate
}
