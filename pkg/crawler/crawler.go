package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PentesterFlow/WebScout/internal/discovery"
	"github.com/PentesterFlow/WebScout/internal/errors"
	"github.com/PentesterFlow/WebScout/internal/httpclient"
	"github.com/PentesterFlow/WebScout/internal/logger"
	"github.com/PentesterFlow/WebScout/internal/metrics"
	"github.com/PentesterFlow/WebScout/internal/parser"
	"github.com/PentesterFlow/WebScout/internal/progress"
	"github.com/PentesterFlow/WebScout/internal/queue"
	"github.com/PentesterFlow/WebScout/internal/ratelimit"
	"github.com/PentesterFlow/WebScout/internal/scope"
	"github.com/PentesterFlow/WebScout/internal/state"
	"github.com/PentesterFlow/WebScout/internal/websocket"
	"github.com/PentesterFlow/WebScout/internal/whois"
)

// scriptFetchTimeout bounds script downloads; scripts are small and a
// slow one must not stall the page loop for the full request timeout.
const scriptFetchTimeout = 5 * time.Second

// estimatedURLs sizes the scheduled-set deduplicator.
const estimatedURLs = 100000

// Crawler drives one scan: it owns the frontier, the worker pool, the
// shared state and the progress reporter.
type Crawler struct {
	config *Config

	checker     *scope.Checker
	client      *httpclient.Client
	queue       *queue.MemoryQueue
	state       *state.Manager
	limiter     *ratelimit.Limiter
	analyzer    *parser.ScriptAnalyzer
	seeder      *discovery.Seeder
	prober      *websocket.Prober
	whoisClient *whois.Client
	store       state.Store

	logger  *logger.Logger
	metrics *metrics.Collector
	display *progress.Display

	running    atomic.Bool
	pending    atomic.Int64
	persistent bool
	wg         sync.WaitGroup
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc

	whoisSummary *whois.Summary
}

// New creates a crawler with the given options and validates the
// resulting configuration.
func New(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.logger == nil {
		level := logger.WarnLevel
		if c.config.Debug {
			level = logger.DebugLevel
		} else if c.config.Verbose {
			level = logger.InfoLevel
		}
		c.logger = logger.New(logger.Config{
			Level:     level,
			Pretty:    true,
			Component: "crawler",
		})
	}

	if c.metrics == nil {
		c.metrics = metrics.New()
	}

	if c.display == nil {
		c.display = progress.New(c.config.Quiet)
	}

	return c, nil
}

// Config returns a copy of the crawler's configuration.
func (c *Crawler) Config() *Config {
	return c.config.Clone()
}

// Running reports whether a scan is in flight.
func (c *Crawler) Running() bool {
	return c.running.Load()
}

// Stop cancels a running scan. Run still returns the result for the
// work completed so far.
func (c *Crawler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Run performs a fresh scan of the configured target.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	return c.run(ctx, false)
}

// Resume continues a previously persisted scan of the configured target.
// It fails when no saved session exists.
func (c *Crawler) Resume(ctx context.Context) (*Result, error) {
	return c.run(ctx, true)
}

func (c *Crawler) run(ctx context.Context, resume bool) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("crawler is already running")
	}
	defer c.running.Store(false)

	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()
	defer c.cancel()

	if err := c.initialize(); err != nil {
		return nil, err
	}
	defer c.cleanup()

	if err := c.seed(resume); err != nil {
		return nil, err
	}

	c.logger.Event(logger.InfoLevel).
		Str("target", c.config.Target).
		Int("max_depth", c.config.MaxDepth).
		Int("workers", c.config.Workers).
		Bool("resume", resume).
		Msg("Crawl starting")

	// Close the frontier on cancellation so blocked pops wake up.
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		<-c.ctx.Done()
		c.queue.Close()
	}()

	c.display.Start()

	reporterStop := make(chan struct{})
	reporterDone := make(chan struct{})
	go c.reporter(reporterStop, reporterDone)

	saverStop := make(chan struct{})
	saverDone := make(chan struct{})
	go c.autosaver(saverStop, saverDone)

	c.metrics.SetActiveWorkers(int64(c.config.Workers))
	for i := 0; i < c.config.Workers; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}
	c.wg.Wait()
	c.metrics.SetActiveWorkers(0)

	close(saverStop)
	<-saverDone
	c.checkpoint()

	interrupted := c.ctx.Err() != nil

	if c.config.Whois && !interrupted {
		c.lookupWhois()
	}

	close(reporterStop)
	<-reporterDone
	c.display.Stop()

	c.cancel()
	<-watcherDone

	result := c.buildResult(interrupted)

	c.logger.StatsEvent(map[string]interface{}{
		"crawled":     result.Stats.Crawled,
		"html":        result.Stats.TotalHTML,
		"backend":     result.Stats.TotalBackend,
		"functions":   result.Stats.TotalFunctions,
		"errors":      result.Stats.Errors,
		"bytes":       result.Stats.BytesFetched,
		"duration":    result.Stats.Duration.String(),
		"interrupted": result.Interrupted,
	})

	return result, nil
}

// initialize builds the per-run components. Everything is rebuilt on
// each run; only the injected store survives across runs.
func (c *Crawler) initialize() error {
	checker, err := scope.NewChecker(c.config.Target)
	if err != nil {
		return fmt.Errorf("failed to create scope checker: %w", err)
	}
	c.checker = checker

	clientConfig := httpclient.DefaultConfig()
	clientConfig.Timeout = c.config.Timeout
	clientConfig.SkipTLSVerify = c.config.SkipTLSVerify
	if c.config.UserAgent != "" {
		clientConfig.UserAgent = c.config.UserAgent
	}
	if len(c.config.CustomHeaders) > 0 {
		clientConfig.Headers = c.config.CustomHeaders
	}
	c.client = httpclient.New(clientConfig)

	c.queue = queue.NewMemoryQueue(0)
	c.pending.Store(0)

	store := c.store
	if store == nil && c.config.StatePath != "" {
		store, err = state.NewBoltStore(c.config.StatePath, c.config.Target)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
	}
	c.persistent = store != nil
	c.state = state.NewManager(store, c.config.Target, estimatedURLs)

	c.limiter = ratelimit.NewLimiter(c.config.Delay)
	c.analyzer = parser.NewScriptAnalyzer()

	if c.config.ProbeWebSockets {
		c.prober = websocket.NewProber()
		c.prober.SetHandshakeTimeout(c.config.Timeout)
		if len(c.config.CustomHeaders) > 0 {
			c.prober.SetHeaders(c.config.CustomHeaders)
		}
	}

	if c.config.Sitemap {
		c.seeder = discovery.NewSeeder(c.client)
	}

	if c.config.Whois {
		c.whoisClient = whois.NewClient(c.config.Timeout)
	}

	return nil
}

func (c *Crawler) cleanup() {
	if c.client != nil {
		c.client.Close()
	}
	if c.state != nil {
		if err := c.state.Close(); err != nil {
			c.logger.WithError(err).Warn("State store close failed")
		}
	}
}

// seed fills the initial frontier. Fresh runs enqueue the target at
// depth zero plus optional sitemap entries at depth one; resumed runs
// re-enqueue the persisted pending entries.
func (c *Crawler) seed(resume bool) error {
	if resume {
		saved, err := c.state.Load()
		if err != nil {
			return fmt.Errorf("failed to load saved session: %w", err)
		}
		if saved == nil {
			return fmt.Errorf("no saved session for %s", c.config.Target)
		}

		pending := c.state.Restore(saved)
		for _, p := range pending {
			c.enqueue(p.URL, p.Depth, "")
		}
		if len(pending) == 0 {
			// Nothing left to crawl; workers exit immediately.
			c.queue.Close()
		}
		c.logger.Infof("Resuming session: %d crawled, %d pending", saved.Crawled, len(pending))
		return nil
	}

	c.state.MarkScheduled(c.config.Target)
	c.enqueue(c.config.Target, 0, "")

	if c.seeder != nil {
		c.seedFromSitemap()
	}
	return nil
}

func (c *Crawler) seedFromSitemap() {
	urls, err := c.seeder.Discover(c.ctx, c.config.Target)
	if err != nil {
		c.logger.WithError(err).Warn("Sitemap discovery failed")
		return
	}

	seeded := 0
	for _, u := range urls {
		if !c.checker.IsInScope(u) {
			continue
		}
		if !c.state.MarkScheduled(u) {
			continue
		}
		c.enqueue(u, 1, c.config.Target)
		seeded++
	}
	if seeded > 0 {
		c.logger.Infof("Seeded %d URLs from sitemap", seeded)
	}
}

// track adjusts the pending-work counter and closes the frontier when it
// reaches zero: every enqueued entry has then been fully processed.
func (c *Crawler) track(delta int64) {
	if c.pending.Add(delta) == 0 {
		c.queue.Close()
	}
}

// enqueue pushes one frontier entry. The caller has already claimed the
// URL in the scheduled set.
func (c *Crawler) enqueue(url string, depth int, parent string) {
	c.track(1)
	item := &queue.Item{
		URL:       url,
		Depth:     depth,
		ParentURL: parent,
		Timestamp: time.Now(),
	}
	if err := c.queue.Push(item); err != nil {
		// Frontier already closed; roll the counter back.
		c.track(-1)
		return
	}
	c.syncQueueGauges()
}

func (c *Crawler) syncQueueGauges() {
	n := c.queue.Len()
	c.state.SetQueued(n)
	c.metrics.SetQueueDepth(int64(n))
}

// worker consumes frontier entries until the queue closes.
func (c *Crawler) worker(id int) {
	defer c.wg.Done()

	log := c.logger.WithWorker(id)
	for {
		item, err := c.queue.PopWait()
		if err != nil {
			return
		}
		c.logger.CrawlEvent(logger.DebugLevel, item.URL, item.Depth, id).Msg("Processing entry")
		c.processItem(log, item)
		c.syncQueueGauges()
		c.track(-1)
	}
}

// processItem runs the full pipeline for one frontier entry: depth
// guard, paced fetch, classification of the URL itself, link and form
// extraction, and script analysis.
func (c *Crawler) processItem(log *logger.Logger, item *queue.Item) {
	if c.ctx.Err() != nil {
		return
	}

	if c.config.MaxDepth > 0 && item.Depth > c.config.MaxDepth {
		log.WithURL(item.URL).WithDepth(item.Depth).Debug("Dropped entry beyond depth limit")
		return
	}

	c.state.RecordVisit(item.Depth)

	if err := c.limiter.Wait(c.ctx); err != nil {
		return
	}

	resp, err := c.client.Get(c.ctx, item.URL)
	if err != nil {
		c.recordFailure(item.URL, "page_fetch", err)
		return
	}
	c.state.AddBytes(resp.Bytes)
	c.metrics.RecordPageFetch(resp.StatusCode, resp.Bytes, resp.Duration)
	log.FetchEvent("GET", item.URL, resp.StatusCode, resp.Bytes, resp.Duration)

	// The fetched URL is itself a candidate finding.
	c.recordFinding(item.URL, item.ParentURL)

	extractor, err := parser.NewExtractor(item.URL)
	if err != nil {
		return
	}
	doc, err := extractor.Extract(resp.Body)
	if err != nil {
		c.recordFailure(item.URL, "html_parse", err)
		return
	}
	if doc.Title != "" {
		log.WithURL(item.URL).WithField("title", doc.Title).Debug("Page parsed")
	}

	for _, link := range doc.Links {
		if !c.checker.IsInScope(link) {
			continue
		}
		c.recordFinding(link, item.URL)
		if c.state.MarkScheduled(link) {
			c.enqueue(link, item.Depth+1, item.URL)
		}
	}

	for _, form := range doc.Forms {
		c.recordForm(item.URL, form)
	}

	for _, src := range doc.Scripts {
		if !c.checker.IsInScope(src) {
			continue
		}
		if !c.state.MarkScriptAnalyzed(src) {
			continue
		}
		c.analyzeScript(log, src)
	}
}

// analyzeScript fetches one script and feeds its findings back into the
// shared state. Endpoint targets resolve against the script URL and pass
// through the same scope and classification gates as page links.
func (c *Crawler) analyzeScript(log *logger.Logger, src string) {
	ctx, cancel := context.WithTimeout(c.ctx, scriptFetchTimeout)
	defer cancel()

	resp, err := c.client.Get(ctx, src)
	if err != nil {
		c.recordFailure(src, "script_fetch", err)
		return
	}
	c.state.AddBytes(resp.Bytes)
	c.metrics.RecordScriptFetch(resp.StatusCode, resp.Bytes, resp.Duration)

	started := time.Now()
	findings := c.analyzer.Analyze(resp.Body)
	log.ScriptEvent(src, len(findings.Functions), len(findings.Endpoints), time.Since(started))

	for _, target := range findings.Endpoints {
		resolved, err := scope.ResolveURL(src, target)
		if err != nil {
			continue
		}
		if !c.checker.IsInScope(resolved) {
			continue
		}
		c.recordFinding(resolved, src)
	}

	for _, name := range findings.Functions {
		if c.state.AddFunction(name) {
			c.display.FoundFunction(name)
			c.logger.DiscoveryEvent("function", name, src)
		}
	}

	if c.prober == nil {
		return
	}
	for _, wsURL := range findings.WebSockets {
		if !c.checker.SameHost(wsURL) {
			continue
		}
		c.probeWebSocket(wsURL, src)
	}
}

// recordFinding classifies a URL and, when its canonical form is new,
// emits the one notification it will ever get.
func (c *Crawler) recordFinding(rawURL, source string) {
	category := scope.Classify(rawURL)
	canonical, fresh := c.state.AddFinding(category, rawURL)
	if !fresh {
		return
	}

	switch category {
	case scope.CategoryHTML:
		c.display.FoundHTML(canonical)
	case scope.CategoryBackend:
		c.display.FoundBackend(canonical)
	}
	c.logger.DiscoveryEvent(category.String(), canonical, source)
}

func (c *Crawler) recordForm(pageURL string, form parser.Form) {
	record := state.Form{
		PageURL: pageURL,
		Action:  form.Action,
		Method:  form.Method,
	}
	for _, in := range form.Inputs {
		record.Inputs = append(record.Inputs, state.FormInput{Name: in.Name, Type: in.Type})
	}
	c.state.AddForm(record)
}

func (c *Crawler) probeWebSocket(wsURL, source string) {
	result := c.prober.Probe(c.ctx, wsURL, source)
	if result == nil {
		return
	}
	c.metrics.RecordWebSocketProbe()

	record := state.WebSocketEndpoint{
		URL:            result.URL,
		DiscoveredFrom: result.DiscoveredFrom,
		Reachable:      result.Reachable,
		Subprotocol:    result.Subprotocol,
		HandshakeTime:  result.HandshakeTime,
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
	}
	c.state.AddWebSocket(record)

	c.logger.Event(logger.DebugLevel).
		Str("url", result.URL).
		Bool("reachable", result.Reachable).
		Dur("handshake", result.HandshakeTime).
		Msg("WebSocket probed")
}

// recordFailure tallies one non-fatal fetch failure. Cancellation is
// cooperative shutdown, not a failure.
func (c *Crawler) recordFailure(url, operation string, err error) {
	crawlErr := errors.Categorize(err, url)
	if crawlErr.Type == errors.Cancelled {
		return
	}

	c.state.AddError(url, crawlErr.Type.String(), crawlErr)
	c.metrics.RecordError(crawlErr.Type.String())
	c.logger.WithError(crawlErr).WithURL(url).WithField("operation", operation).Warn("Request failed")
}

// reporter drives the status line off state snapshots until stopped.
func (c *Crawler) reporter(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(progress.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snap := c.state.GetSnapshot()
			c.display.Tick(snap.Crawled, snap.Queued, snap.Depth,
				snap.HTMLCount, snap.BackendCount, snap.FunctionCount)
		}
	}
}

// autosaver checkpoints the session periodically while persistence is
// enabled. The final checkpoint after the crawl drains is taken by run.
func (c *Crawler) autosaver(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if !c.persistent || c.config.SaveInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.config.SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.checkpoint()
			snap := c.state.GetSnapshot()
			c.logger.SnapshotEvent(snap.Crawled, snap.Queued, snap.Depth)
		}
	}
}

func (c *Crawler) checkpoint() {
	if !c.persistent {
		return
	}

	items := c.queue.Snapshot()
	pending := make([]state.PendingURL, 0, len(items))
	for _, item := range items {
		pending = append(pending, state.PendingURL{URL: item.URL, Depth: item.Depth})
	}

	cfg, err := json.Marshal(c.config)
	if err != nil {
		cfg = nil
	}

	if err := c.state.Checkpoint(pending, cfg); err != nil {
		c.logger.WithError(err).Warn("State checkpoint failed")
	}
}

func (c *Crawler) lookupWhois() {
	host, err := scope.ExtractDomain(c.config.Target)
	if err != nil {
		c.logger.WithError(err).Warn("Whois lookup skipped")
		return
	}

	summary, err := c.whoisClient.Lookup(c.ctx, host)
	if err != nil {
		c.logger.WithError(err).Warn("Whois lookup failed")
		return
	}
	c.whoisSummary = summary
}

func (c *Crawler) buildResult(interrupted bool) *Result {
	snap := c.state.GetSnapshot()

	result := &Result{
		Target:           c.config.Target,
		StartedAt:        snap.StartedAt,
		CompletedAt:      time.Now(),
		Interrupted:      interrupted,
		HTMLPages:        c.state.HTMLPages(),
		BackendEndpoints: c.state.BackendEndpoints(),
		Functions:        c.state.Functions(),
		Whois:            c.whoisSummary,
		Stats: Stats{
			TotalHTML:       snap.HTMLCount,
			TotalBackend:    snap.BackendCount,
			TotalFunctions:  snap.FunctionCount,
			MaxDepth:        c.config.MaxDepth,
			Crawled:         snap.Crawled,
			ScriptsAnalyzed: snap.ScriptsAnalyzed,
			Errors:          snap.Errors,
			BytesFetched:    snap.BytesFetched,
			Duration:        time.Since(snap.StartedAt),
		},
	}

	for _, form := range c.state.Forms() {
		rf := Form{
			PageURL: form.PageURL,
			Action:  form.Action,
			Method:  form.Method,
		}
		for _, in := range form.Inputs {
			rf.Inputs = append(rf.Inputs, FormInput{Name: in.Name, Type: in.Type})
		}
		result.Forms = append(result.Forms, rf)
	}

	for _, ws := range c.state.WebSockets() {
		result.WebSockets = append(result.WebSockets, WebSocketEndpoint{
			URL:            ws.URL,
			DiscoveredFrom: ws.DiscoveredFrom,
			Reachable:      ws.Reachable,
			Subprotocol:    ws.Subprotocol,
			HandshakeTime:  ws.HandshakeTime,
			Error:          ws.Error,
		})
	}

	for _, crawlErr := range c.state.Errors() {
		result.Errors = append(result.Errors, CrawlError{
			URL:       crawlErr.URL,
			Category:  crawlErr.Category,
			Error:     crawlErr.Error,
			Timestamp: crawlErr.Timestamp,
		})
	}

	return result
}
