// Package state owns the mutable state of a crawl session: the set of
// scheduled URLs, the classified findings, and the progress counters.
package state

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/PentesterFlow/WebScout/internal/scope"
)

// Manager is the single owner of crawl state. Every method serializes on
// one mutex, so workers and the progress reporter observe consistent
// values without coordinating among themselves. Methods that insert
// report whether the value was new, letting the caller emit notifications
// exactly once without holding the lock.
type Manager struct {
	mu sync.Mutex

	target    string
	startTime time.Time
	store     Store

	scheduled *Deduplicator

	// findings maps canonical URL to the category it was first recorded
	// under. A URL never appears in more than one category.
	findings     map[string]scope.Category
	htmlCount    int
	backendCount int

	functions map[string]struct{}
	scripts   map[string]struct{}

	crawled int
	queued  int
	depth   int
	bytes   int64

	forms    []Form
	formKeys map[string]struct{}

	webSockets []WebSocketEndpoint
	wsKeys     map[string]struct{}

	errors []CrawlError
}

// NewManager creates a state manager for a crawl of the given target.
// The store may be nil when persistence is disabled.
func NewManager(store Store, target string, estimatedURLs int) *Manager {
	return &Manager{
		target:    target,
		startTime: time.Now(),
		store:     store,
		scheduled: NewDeduplicator(estimatedURLs),
		findings:  make(map[string]scope.Category),
		functions: make(map[string]struct{}),
		scripts:   make(map[string]struct{}),
		formKeys:  make(map[string]struct{}),
		wsKeys:    make(map[string]struct{}),
	}
}

// Target returns the target host this crawl is bound to.
func (m *Manager) Target() string {
	return m.target
}

// MarkScheduled claims a URL for the frontier and reports whether this
// call was the first to do so. A URL is claimed at enqueue time, never at
// fetch time, so no URL can be queued twice.
func (m *Manager) MarkScheduled(url string) bool {
	return m.scheduled.AddIfNew(url)
}

// HasScheduled reports whether a URL has already been claimed.
func (m *Manager) HasScheduled(url string) bool {
	return m.scheduled.HasSeen(url)
}

// ScheduledCount returns the number of distinct URLs claimed so far.
func (m *Manager) ScheduledCount() int {
	return m.scheduled.Count()
}

// MarkScriptAnalyzed claims a script URL for analysis and reports whether
// it was new. Scripts referenced from many pages are analyzed once.
func (m *Manager) MarkScriptAnalyzed(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.scripts[url]; exists {
		return false
	}
	m.scripts[url] = struct{}{}
	return true
}

// RecordVisit counts one processed page and records its depth.
func (m *Manager) RecordVisit(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.crawled++
	m.depth = depth
}

// SetQueued records the current frontier length for progress reporting.
func (m *Manager) SetQueued(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = n
}

// AddBytes adds to the transferred byte counter.
func (m *Manager) AddBytes(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes += n
}

// AddFinding records a classified URL under its canonical form and reports
// the canonical URL along with whether it was new. The first category
// recorded for a canonical URL wins; later sightings under any category
// are ignored, so the HTML and backend sets never overlap. Unknown
// categories are not recorded.
func (m *Manager) AddFinding(category scope.Category, rawURL string) (string, bool) {
	if category != scope.CategoryHTML && category != scope.CategoryBackend {
		return "", false
	}
	canonical := scope.CanonicalURL(rawURL)
	if canonical == "" {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.findings[canonical]; exists {
		return canonical, false
	}
	m.findings[canonical] = category
	switch category {
	case scope.CategoryHTML:
		m.htmlCount++
	case scope.CategoryBackend:
		m.backendCount++
	}
	return canonical, true
}

// AddFunction records a JavaScript function name and reports whether it
// was new.
func (m *Manager) AddFunction(name string) bool {
	if name == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.functions[name]; exists {
		return false
	}
	m.functions[name] = struct{}{}
	return true
}

func formKey(f Form) string {
	return f.PageURL + "\x00" + f.Action + "\x00" + f.Method
}

// AddForm records a discovered form, deduplicated by page, action and
// method, and reports whether it was new.
func (m *Manager) AddForm(form Form) bool {
	key := formKey(form)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.formKeys[key]; exists {
		return false
	}
	m.formKeys[key] = struct{}{}
	m.forms = append(m.forms, form)
	return true
}

// AddWebSocket records a probed WebSocket endpoint, deduplicated by URL,
// and reports whether it was new.
func (m *Manager) AddWebSocket(ws WebSocketEndpoint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.wsKeys[ws.URL]; exists {
		return false
	}
	m.wsKeys[ws.URL] = struct{}{}
	m.webSockets = append(m.webSockets, ws)
	return true
}

// AddError records a non-fatal crawl failure.
func (m *Manager) AddError(url, category string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors = append(m.errors, CrawlError{
		URL:       url,
		Category:  category,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// GetSnapshot returns a consistent copy of the progress counters.
func (m *Manager) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Crawled:         m.crawled,
		Queued:          m.queued,
		Depth:           m.depth,
		HTMLCount:       m.htmlCount,
		BackendCount:    m.backendCount,
		FunctionCount:   len(m.functions),
		ScriptsAnalyzed: len(m.scripts),
		Errors:          len(m.errors),
		BytesFetched:    m.bytes,
		StartedAt:       m.startTime,
	}
}

// HTMLPages returns the canonical HTML page URLs in sorted order.
func (m *Manager) HTMLPages() []string {
	return m.findingsByCategory(scope.CategoryHTML)
}

// BackendEndpoints returns the canonical backend URLs in sorted order.
func (m *Manager) BackendEndpoints() []string {
	return m.findingsByCategory(scope.CategoryBackend)
}

func (m *Manager) findingsByCategory(category scope.Category) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	urls := make([]string, 0, len(m.findings))
	for url, cat := range m.findings {
		if cat == category {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)
	return urls
}

// Functions returns the discovered function names in sorted order.
func (m *Manager) Functions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.functions))
	for name := range m.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Forms returns a copy of the recorded forms in discovery order.
func (m *Manager) Forms() []Form {
	m.mu.Lock()
	defer m.mu.Unlock()

	forms := make([]Form, len(m.forms))
	copy(forms, m.forms)
	return forms
}

// WebSockets returns a copy of the probed WebSocket endpoints.
func (m *Manager) WebSockets() []WebSocketEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	wss := make([]WebSocketEndpoint, len(m.webSockets))
	copy(wss, m.webSockets)
	return wss
}

// Errors returns a copy of the recorded crawl errors.
func (m *Manager) Errors() []CrawlError {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := make([]CrawlError, len(m.errors))
	copy(errs, m.errors)
	return errs
}

// Duration returns the elapsed time since the crawl started.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// Export assembles the complete persistable state. The caller supplies
// the current frontier contents and the serialized configuration.
func (m *Manager) Export(pending []PendingURL, config json.RawMessage) *CrawlerState {
	scheduled := m.scheduled.GetAll()
	sort.Strings(scheduled)

	m.mu.Lock()
	defer m.mu.Unlock()

	scripts := make([]string, 0, len(m.scripts))
	for url := range m.scripts {
		scripts = append(scripts, url)
	}
	sort.Strings(scripts)

	html := make([]string, 0, m.htmlCount)
	backend := make([]string, 0, m.backendCount)
	for url, cat := range m.findings {
		switch cat {
		case scope.CategoryHTML:
			html = append(html, url)
		case scope.CategoryBackend:
			backend = append(backend, url)
		}
	}
	sort.Strings(html)
	sort.Strings(backend)

	functions := make([]string, 0, len(m.functions))
	for name := range m.functions {
		functions = append(functions, name)
	}
	sort.Strings(functions)

	forms := make([]Form, len(m.forms))
	copy(forms, m.forms)
	wss := make([]WebSocketEndpoint, len(m.webSockets))
	copy(wss, m.webSockets)
	errs := make([]CrawlError, len(m.errors))
	copy(errs, m.errors)

	return &CrawlerState{
		Target:          m.target,
		StartedAt:       m.startTime,
		UpdatedAt:       time.Now(),
		Crawled:         m.crawled,
		Depth:           m.depth,
		ScriptsAnalyzed: len(m.scripts),
		BytesFetched:    m.bytes,
		Scheduled:       scheduled,
		Queue:           pending,
		HTMLPages:       html,
		Backend:         backend,
		Functions:       functions,
		AnalyzedScripts: scripts,
		Forms:           forms,
		WebSockets:      wss,
		Errors:          errs,
		Config:          config,
	}
}

// Restore replaces the manager's state with a previously exported one and
// returns the frontier entries to re-enqueue.
func (m *Manager) Restore(cs *CrawlerState) []PendingURL {
	m.scheduled.Reset()
	m.scheduled.AddBatch(cs.Scheduled)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.target = cs.Target
	m.startTime = cs.StartedAt
	m.crawled = cs.Crawled
	m.depth = cs.Depth
	m.bytes = cs.BytesFetched
	m.queued = len(cs.Queue)

	m.findings = make(map[string]scope.Category, len(cs.HTMLPages)+len(cs.Backend))
	m.htmlCount = 0
	m.backendCount = 0
	for _, url := range cs.HTMLPages {
		if _, exists := m.findings[url]; !exists {
			m.findings[url] = scope.CategoryHTML
			m.htmlCount++
		}
	}
	for _, url := range cs.Backend {
		if _, exists := m.findings[url]; !exists {
			m.findings[url] = scope.CategoryBackend
			m.backendCount++
		}
	}

	m.functions = make(map[string]struct{}, len(cs.Functions))
	for _, name := range cs.Functions {
		m.functions[name] = struct{}{}
	}

	m.scripts = make(map[string]struct{}, len(cs.AnalyzedScripts))
	for _, url := range cs.AnalyzedScripts {
		m.scripts[url] = struct{}{}
	}

	m.forms = make([]Form, len(cs.Forms))
	copy(m.forms, cs.Forms)
	m.formKeys = make(map[string]struct{}, len(cs.Forms))
	for _, form := range cs.Forms {
		m.formKeys[formKey(form)] = struct{}{}
	}

	m.webSockets = make([]WebSocketEndpoint, len(cs.WebSockets))
	copy(m.webSockets, cs.WebSockets)
	m.wsKeys = make(map[string]struct{}, len(cs.WebSockets))
	for _, ws := range cs.WebSockets {
		m.wsKeys[ws.URL] = struct{}{}
	}

	m.errors = make([]CrawlError, len(cs.Errors))
	copy(m.errors, cs.Errors)

	return cs.Queue
}

// Checkpoint exports the current state and writes it to the store. It is
// a no-op when no store is configured.
func (m *Manager) Checkpoint(pending []PendingURL, config json.RawMessage) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(m.Export(pending, config))
}

// Load reads the persisted state from the store, or nil when no store is
// configured.
func (m *Manager) Load() (*CrawlerState, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Load()
}

// Close releases the underlying store, if any.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Store persists crawl state between sessions.
type Store interface {
	Save(state *CrawlerState) error
	Load() (*CrawlerState, error)
	Close() error
}
