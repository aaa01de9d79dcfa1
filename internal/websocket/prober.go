// Package websocket probes ws endpoints discovered during a crawl.
package websocket

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHandshakeTimeout bounds a single probe dial.
const DefaultHandshakeTimeout = 10 * time.Second

// Result records the outcome of probing one endpoint.
type Result struct {
	URL            string
	DiscoveredFrom string
	Reachable      bool
	Subprotocol    string
	HandshakeTime  time.Duration
	Err            error
}

// Prober dials discovered ws endpoints once each to check reachability.
// The connection closes right after the handshake; no messages are
// exchanged with the server.
type Prober struct {
	mu      sync.Mutex
	dialer  *websocket.Dialer
	headers http.Header
	probed  map[string]struct{}
}

// NewProber creates a prober with the default handshake timeout.
func NewProber() *Prober {
	return &Prober{
		dialer: &websocket.Dialer{
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		headers: make(http.Header),
		probed:  make(map[string]struct{}),
	}
}

// SetHeaders sets custom headers sent with every handshake.
func (p *Prober) SetHeaders(headers map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k, v := range headers {
		p.headers.Set(k, v)
	}
}

// SetHandshakeTimeout overrides the dial timeout.
func (p *Prober) SetHandshakeTimeout(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.dialer.HandshakeTimeout = d
	}
}

// Probe dials wsURL and reports the outcome. Each URL is probed at most
// once per prober; repeat calls return nil.
func (p *Prober) Probe(ctx context.Context, wsURL, sourceURL string) *Result {
	p.mu.Lock()
	if _, done := p.probed[wsURL]; done {
		p.mu.Unlock()
		return nil
	}
	p.probed[wsURL] = struct{}{}
	headers := p.headers.Clone()
	dialer := p.dialer
	p.mu.Unlock()

	res := &Result{
		URL:            wsURL,
		DiscoveredFrom: sourceURL,
	}

	parsed, err := url.Parse(wsURL)
	if err != nil {
		res.Err = err
		return res
	}

	switch parsed.Scheme {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "wss"
	}

	start := time.Now()
	conn, resp, err := dialer.DialContext(ctx, parsed.String(), headers)
	res.HandshakeTime = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer conn.Close()

	res.Reachable = true
	if resp != nil {
		res.Subprotocol = strings.TrimSpace(resp.Header.Get("Sec-WebSocket-Protocol"))
	}
	return res
}

// Count returns the number of URLs probed so far.
func (p *Prober) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.probed)
}
