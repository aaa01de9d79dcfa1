// Package metrics provides metrics collection for the crawler.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates crawl metrics.
type Collector struct {
	// Counters
	requestsTotal   atomic.Int64
	errorsTotal     atomic.Int64
	pagesFetched    atomic.Int64
	scriptsFetched  atomic.Int64
	websocketProbes atomic.Int64
	bytesTotal      atomic.Int64

	// Rate tracking
	requestsInWindow atomic.Int64
	errorsInWindow   atomic.Int64
	windowStart      atomic.Int64

	// Fetch time tracking, pages and scripts separately
	pageTimeSum   atomic.Int64
	pageTimeNum   atomic.Int64
	scriptTimeSum atomic.Int64
	scriptTimeNum atomic.Int64

	// Gauges
	queueDepth    atomic.Int64
	activeWorkers atomic.Int64

	// Histogram buckets for fetch times in ms
	fetchTimeBuckets [10]atomic.Int64 // <10, <50, <100, <250, <500, <1000, <2500, <5000, <10000, >=10000

	// Error breakdown by category
	errorCounts map[string]*atomic.Int64
	errorMu     sync.RWMutex

	// Status code breakdown
	statusCodes map[int]*atomic.Int64
	statusMu    sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	now := time.Now()
	c := &Collector{
		errorCounts: make(map[string]*atomic.Int64),
		statusCodes: make(map[int]*atomic.Int64),
		startTime:   now,
	}
	c.windowStart.Store(now.UnixNano())
	return c
}

// RecordPageFetch records a completed page fetch.
func (c *Collector) RecordPageFetch(statusCode int, bytes int64, d time.Duration) {
	c.requestsTotal.Add(1)
	c.requestsInWindow.Add(1)
	c.pagesFetched.Add(1)
	c.bytesTotal.Add(bytes)
	c.recordStatusCode(statusCode)

	ms := d.Milliseconds()
	c.pageTimeSum.Add(ms)
	c.pageTimeNum.Add(1)
	c.fetchTimeBuckets[bucketFor(ms)].Add(1)
}

// RecordScriptFetch records a completed script fetch.
func (c *Collector) RecordScriptFetch(statusCode int, bytes int64, d time.Duration) {
	c.requestsTotal.Add(1)
	c.requestsInWindow.Add(1)
	c.scriptsFetched.Add(1)
	c.bytesTotal.Add(bytes)
	c.recordStatusCode(statusCode)

	ms := d.Milliseconds()
	c.scriptTimeSum.Add(ms)
	c.scriptTimeNum.Add(1)
	c.fetchTimeBuckets[bucketFor(ms)].Add(1)
}

// RecordWebSocketProbe records a WebSocket handshake attempt.
func (c *Collector) RecordWebSocketProbe() {
	c.websocketProbes.Add(1)
}

// RecordError records a failed request under its error category.
func (c *Collector) RecordError(category string) {
	c.errorsTotal.Add(1)
	c.errorsInWindow.Add(1)

	c.errorMu.Lock()
	if c.errorCounts[category] == nil {
		c.errorCounts[category] = &atomic.Int64{}
	}
	c.errorCounts[category].Add(1)
	c.errorMu.Unlock()
}

func (c *Collector) recordStatusCode(code int) {
	c.statusMu.Lock()
	if c.statusCodes[code] == nil {
		c.statusCodes[code] = &atomic.Int64{}
	}
	c.statusCodes[code].Add(1)
	c.statusMu.Unlock()
}

// bucketFor returns the histogram bucket for a fetch time.
func bucketFor(ms int64) int {
	switch {
	case ms < 10:
		return 0
	case ms < 50:
		return 1
	case ms < 100:
		return 2
	case ms < 250:
		return 3
	case ms < 500:
		return 4
	case ms < 1000:
		return 5
	case ms < 2500:
		return 6
	case ms < 5000:
		return 7
	case ms < 10000:
		return 8
	default:
		return 9
	}
}

// SetQueueDepth sets the current frontier depth.
func (c *Collector) SetQueueDepth(depth int64) {
	c.queueDepth.Store(depth)
}

// SetActiveWorkers sets the number of active workers.
func (c *Collector) SetActiveWorkers(n int64) {
	c.activeWorkers.Store(n)
}

// GetRequestsPerSecond returns the current requests per second rate.
func (c *Collector) GetRequestsPerSecond() float64 {
	return c.getRatePerSecond(&c.requestsInWindow)
}

// GetErrorsPerSecond returns the current errors per second rate.
func (c *Collector) GetErrorsPerSecond() float64 {
	return c.getRatePerSecond(&c.errorsInWindow)
}

// getRatePerSecond calculates rate per second with window rotation.
func (c *Collector) getRatePerSecond(counter *atomic.Int64) float64 {
	windowDuration := 10 * time.Second
	now := time.Now().UnixNano()
	windowStart := c.windowStart.Load()

	elapsed := time.Duration(now - windowStart)
	if elapsed >= windowDuration {
		if c.windowStart.CompareAndSwap(windowStart, now) {
			c.requestsInWindow.Store(0)
			c.errorsInWindow.Store(0)
		}
		return 0
	}

	count := counter.Load()
	if elapsed <= 0 {
		return 0
	}

	return float64(count) / elapsed.Seconds()
}

// GetAveragePageTime returns the average page fetch time.
func (c *Collector) GetAveragePageTime() time.Duration {
	return average(&c.pageTimeSum, &c.pageTimeNum)
}

// GetAverageScriptTime returns the average script fetch time.
func (c *Collector) GetAverageScriptTime() time.Duration {
	return average(&c.scriptTimeSum, &c.scriptTimeNum)
}

func average(sum, num *atomic.Int64) time.Duration {
	n := num.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(sum.Load()/n) * time.Millisecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:         time.Now(),
		Uptime:            time.Since(c.startTime),
		RequestsTotal:     c.requestsTotal.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
		PagesFetched:      c.pagesFetched.Load(),
		ScriptsFetched:    c.scriptsFetched.Load(),
		WebSocketProbes:   c.websocketProbes.Load(),
		BytesTotal:        c.bytesTotal.Load(),
		QueueDepth:        c.queueDepth.Load(),
		ActiveWorkers:     c.activeWorkers.Load(),
		RequestsPerSecond: c.GetRequestsPerSecond(),
		ErrorsPerSecond:   c.GetErrorsPerSecond(),
		AveragePageTime:   c.GetAveragePageTime(),
		AverageScriptTime: c.GetAverageScriptTime(),
		ErrorCounts:       make(map[string]int64),
		StatusCodes:       make(map[int]int64),
		FetchTimeHist:     make([]int64, 10),
	}

	c.errorMu.RLock()
	for k, v := range c.errorCounts {
		s.ErrorCounts[k] = v.Load()
	}
	c.errorMu.RUnlock()

	c.statusMu.RLock()
	for k, v := range c.statusCodes {
		s.StatusCodes[k] = v.Load()
	}
	c.statusMu.RUnlock()

	for i := 0; i < 10; i++ {
		s.FetchTimeHist[i] = c.fetchTimeBuckets[i].Load()
	}

	return s
}

// Reset resets all metrics.
func (c *Collector) Reset() {
	c.requestsTotal.Store(0)
	c.errorsTotal.Store(0)
	c.pagesFetched.Store(0)
	c.scriptsFetched.Store(0)
	c.websocketProbes.Store(0)
	c.bytesTotal.Store(0)
	c.requestsInWindow.Store(0)
	c.errorsInWindow.Store(0)
	c.pageTimeSum.Store(0)
	c.pageTimeNum.Store(0)
	c.scriptTimeSum.Store(0)
	c.scriptTimeNum.Store(0)
	c.queueDepth.Store(0)
	c.activeWorkers.Store(0)

	for i := 0; i < 10; i++ {
		c.fetchTimeBuckets[i].Store(0)
	}

	c.errorMu.Lock()
	c.errorCounts = make(map[string]*atomic.Int64)
	c.errorMu.Unlock()

	c.statusMu.Lock()
	c.statusCodes = make(map[int]*atomic.Int64)
	c.statusMu.Unlock()

	c.windowStart.Store(time.Now().UnixNano())
	c.startTime = time.Now()
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp         time.Time        `json:"timestamp"`
	Uptime            time.Duration    `json:"uptime"`
	RequestsTotal     int64            `json:"requests_total"`
	ErrorsTotal       int64            `json:"errors_total"`
	PagesFetched      int64            `json:"pages_fetched"`
	ScriptsFetched    int64            `json:"scripts_fetched"`
	WebSocketProbes   int64            `json:"websocket_probes"`
	BytesTotal        int64            `json:"bytes_total"`
	QueueDepth        int64            `json:"queue_depth"`
	ActiveWorkers     int64            `json:"active_workers"`
	RequestsPerSecond float64          `json:"requests_per_second"`
	ErrorsPerSecond   float64          `json:"errors_per_second"`
	AveragePageTime   time.Duration    `json:"average_page_time"`
	AverageScriptTime time.Duration    `json:"average_script_time"`
	ErrorCounts       map[string]int64 `json:"error_counts"`
	StatusCodes       map[int]int64    `json:"status_codes"`
	FetchTimeHist     []int64          `json:"fetch_time_histogram"`
}

// ErrorRate returns the error rate (errors/requests).
func (s *Snapshot) ErrorRate() float64 {
	if s.RequestsTotal == 0 {
		return 0
	}
	return float64(s.ErrorsTotal) / float64(s.RequestsTotal)
}

// Summary returns a human-readable summary.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"uptime":              s.Uptime.String(),
		"requests_total":      s.RequestsTotal,
		"errors_total":        s.ErrorsTotal,
		"error_rate":          s.ErrorRate(),
		"pages_fetched":       s.PagesFetched,
		"scripts_fetched":     s.ScriptsFetched,
		"bytes_total":         s.BytesTotal,
		"queue_depth":         s.QueueDepth,
		"requests_per_second": s.RequestsPerSecond,
		"avg_page_time_ms":    s.AveragePageTime.Milliseconds(),
		"avg_script_time_ms":  s.AverageScriptTime.Milliseconds(),
	}
}

// Global metrics collector.
var globalCollector = New()

// SetGlobal sets the global metrics collector.
func SetGlobal(c *Collector) {
	globalCollector = c
}

// Global returns the global metrics collector.
func Global() *Collector {
	return globalCollector
}
