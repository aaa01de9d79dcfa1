package output

import (
	"time"

	"github.com/PentesterFlow/WebScout/internal/whois"
)

// Report is the serialized scan result. The finding lists and the stats
// block are the tool's established report layout; supplemental blocks
// appear only when they carry data.
type Report struct {
	Target           string         `json:"target"`
	HTMLPages        []string       `json:"html_pages"`
	BackendEndpoints []string       `json:"backend_endpoints"`
	Functions        []string       `json:"functions"`
	Stats            Stats          `json:"stats"`
	Session          *Session       `json:"session,omitempty"`
	Forms            []Form         `json:"forms,omitempty"`
	WebSockets       []WebSocket    `json:"websockets,omitempty"`
	Errors           []CrawlError   `json:"errors,omitempty"`
	Whois            *whois.Summary `json:"whois,omitempty"`
}

// Stats is the summary block of the report. MaxDepth is the configured
// crawl limit, not the deepest level reached.
type Stats struct {
	TotalHTML      int `json:"total_html"`
	TotalBackend   int `json:"total_backend"`
	TotalFunctions int `json:"total_functions"`
	MaxDepth       int `json:"max_depth"`
}

// Session captures run timing and transfer totals.
type Session struct {
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	PagesCrawled    int       `json:"pages_crawled"`
	ScriptsAnalyzed int       `json:"scripts_analyzed"`
	BytesFetched    int64     `json:"bytes_fetched"`
	Interrupted     bool      `json:"interrupted,omitempty"`
}

// Form is an HTML form inventoried during the crawl.
type Form struct {
	PageURL string      `json:"page_url"`
	Action  string      `json:"action"`
	Method  string      `json:"method"`
	Inputs  []FormInput `json:"inputs,omitempty"`
}

// FormInput is one named field of a form.
type FormInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// WebSocket is the probe outcome for one ws:// or wss:// endpoint.
type WebSocket struct {
	URL            string `json:"url"`
	DiscoveredFrom string `json:"discovered_from,omitempty"`
	Reachable      bool   `json:"reachable"`
	Subprotocol    string `json:"subprotocol,omitempty"`
	HandshakeMS    int64  `json:"handshake_ms,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CrawlError is one recorded, non-fatal failure.
type CrawlError struct {
	URL      string `json:"url"`
	Category string `json:"category"`
	Error    string `json:"error"`
}
