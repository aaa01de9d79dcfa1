package state

import (
	"encoding/json"
	"time"
)

// Snapshot is the read-only progress view consumed by the reporter. It is
// a value copy; observers never touch live state.
type Snapshot struct {
	Crawled         int
	Queued          int
	Depth           int
	HTMLCount       int
	BackendCount    int
	FunctionCount   int
	ScriptsAnalyzed int
	Errors          int
	BytesFetched    int64
	StartedAt       time.Time
}

// PendingURL is a frontier entry in persistable form.
type PendingURL struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// Form describes an HTML form found on a crawled page.
type Form struct {
	PageURL string      `json:"page_url"`
	Action  string      `json:"action"`
	Method  string      `json:"method"`
	Inputs  []FormInput `json:"inputs,omitempty"`
}

// FormInput is one input field of a form.
type FormInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// WebSocketEndpoint records the outcome of probing a ws:// or wss:// URL
// discovered on the target host.
type WebSocketEndpoint struct {
	URL            string        `json:"url"`
	DiscoveredFrom string        `json:"discovered_from"`
	Reachable      bool          `json:"reachable"`
	Subprotocol    string        `json:"subprotocol,omitempty"`
	HandshakeTime  time.Duration `json:"handshake_time_ns,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// CrawlError is one recorded, non-fatal crawl failure.
type CrawlError struct {
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// CrawlerState is the complete persistable state of a crawl session, used
// for resume and status inspection.
type CrawlerState struct {
	Target          string              `json:"target"`
	StartedAt       time.Time           `json:"started_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Crawled         int                 `json:"crawled"`
	Depth           int                 `json:"depth"`
	ScriptsAnalyzed int                 `json:"scripts_analyzed"`
	BytesFetched    int64               `json:"bytes_fetched"`
	Scheduled       []string            `json:"scheduled_urls"`
	Queue           []PendingURL        `json:"queue"`
	HTMLPages       []string            `json:"html_pages"`
	Backend         []string            `json:"backend_endpoints"`
	Functions       []string            `json:"functions"`
	AnalyzedScripts []string            `json:"analyzed_scripts"`
	Forms           []Form              `json:"forms,omitempty"`
	WebSockets      []WebSocketEndpoint `json:"websockets,omitempty"`
	Errors          []CrawlError        `json:"errors,omitempty"`
	Config          json.RawMessage     `json:"config,omitempty"`
}
