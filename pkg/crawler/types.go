// Package crawler implements the WebScout scan engine: breadth-first
// resource discovery over a single web application, collecting HTML
// pages, backend-style endpoints and JavaScript function names.
package crawler

import (
	"time"

	"github.com/PentesterFlow/WebScout/internal/output"
	"github.com/PentesterFlow/WebScout/internal/whois"
)

// Result is the complete outcome of one scan.
type Result struct {
	Target           string              `json:"target"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      time.Time           `json:"completed_at"`
	Interrupted      bool                `json:"interrupted,omitempty"`
	HTMLPages        []string            `json:"html_pages"`
	BackendEndpoints []string            `json:"backend_endpoints"`
	Functions        []string            `json:"functions"`
	Forms            []Form              `json:"forms,omitempty"`
	WebSockets       []WebSocketEndpoint `json:"websockets,omitempty"`
	Errors           []CrawlError        `json:"errors,omitempty"`
	Whois            *whois.Summary      `json:"whois,omitempty"`
	Stats            Stats               `json:"stats"`
}

// Stats summarizes a scan. MaxDepth is the configured limit, not the
// deepest level reached.
type Stats struct {
	TotalHTML       int           `json:"total_html"`
	TotalBackend    int           `json:"total_backend"`
	TotalFunctions  int           `json:"total_functions"`
	MaxDepth        int           `json:"max_depth"`
	Crawled         int           `json:"crawled"`
	ScriptsAnalyzed int           `json:"scripts_analyzed"`
	Errors          int           `json:"errors"`
	BytesFetched    int64         `json:"bytes_fetched"`
	Duration        time.Duration `json:"duration"`
}

// Form is an HTML form inventoried during the scan.
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

// WebSocketEndpoint is the probe outcome for one ws:// or wss:// URL.
type WebSocketEndpoint struct {
	URL            string        `json:"url"`
	DiscoveredFrom string        `json:"discovered_from,omitempty"`
	Reachable      bool          `json:"reachable"`
	Subprotocol    string        `json:"subprotocol,omitempty"`
	HandshakeTime  time.Duration `json:"handshake_time_ns,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// CrawlError is one recorded, non-fatal failure.
type CrawlError struct {
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Report converts the result into the serializable report consumed by
// the output writers. Supplemental blocks appear only when populated.
func (r *Result) Report() *output.Report {
	report := &output.Report{
		Target:           r.Target,
		HTMLPages:        r.HTMLPages,
		BackendEndpoints: r.BackendEndpoints,
		Functions:        r.Functions,
		Stats: output.Stats{
			TotalHTML:      r.Stats.TotalHTML,
			TotalBackend:   r.Stats.TotalBackend,
			TotalFunctions: r.Stats.TotalFunctions,
			MaxDepth:       r.Stats.MaxDepth,
		},
		Session: &output.Session{
			StartedAt:       r.StartedAt,
			CompletedAt:     r.CompletedAt,
			DurationSeconds: r.Stats.Duration.Seconds(),
			PagesCrawled:    r.Stats.Crawled,
			ScriptsAnalyzed: r.Stats.ScriptsAnalyzed,
			BytesFetched:    r.Stats.BytesFetched,
			Interrupted:     r.Interrupted,
		},
		Whois: r.Whois,
	}

	for _, form := range r.Forms {
		rf := output.Form{
			PageURL: form.PageURL,
			Action:  form.Action,
			Method:  form.Method,
		}
		for _, in := range form.Inputs {
			rf.Inputs = append(rf.Inputs, output.FormInput{Name: in.Name, Type: in.Type})
		}
		report.Forms = append(report.Forms, rf)
	}

	for _, ws := range r.WebSockets {
		report.WebSockets = append(report.WebSockets, output.WebSocket{
			URL:            ws.URL,
			DiscoveredFrom: ws.DiscoveredFrom,
			Reachable:      ws.Reachable,
			Subprotocol:    ws.Subprotocol,
			HandshakeMS:    ws.HandshakeTime.Milliseconds(),
			Error:          ws.Error,
		})
	}

	for _, crawlErr := range r.Errors {
		report.Errors = append(report.Errors, output.CrawlError{
			URL:      crawlErr.URL,
			Category: crawlErr.Category,
			Error:    crawlErr.Error,
		})
	}

	return report
}
