package crawler

import (
	"fmt"
	"time"

	"github.com/PentesterFlow/WebScout/internal/logger"
	"github.com/PentesterFlow/WebScout/internal/metrics"
	"github.com/PentesterFlow/WebScout/internal/progress"
	"github.com/PentesterFlow/WebScout/internal/state"
)

// Option is a functional option for configuring the Crawler.
type Option func(*Crawler) error

// WithTarget sets the target URL to scan.
func WithTarget(url string) Option {
	return func(c *Crawler) error {
		c.config.Target = url
		return nil
	}
}

// WithDepth sets the maximum crawl depth. Zero removes the limit.
func WithDepth(depth int) Option {
	return func(c *Crawler) error {
		if depth < 0 {
			depth = 0
		}
		c.config.MaxDepth = depth
		return nil
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.Workers = n
		return nil
	}
}

// WithDelay sets the fixed delay between page fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) error {
		if d < 0 {
			d = 0
		}
		c.config.Delay = d
		return nil
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) error {
		c.config.Timeout = d
		return nil
	}
}

// WithUserAgent sets the user agent for all requests.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) error {
		c.config.UserAgent = ua
		return nil
	}
}

// WithHeaders merges custom headers into every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Crawler) error {
		if c.config.CustomHeaders == nil {
			c.config.CustomHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.config.CustomHeaders[k] = v
		}
		return nil
	}
}

// WithSkipTLSVerify enables or disables TLS certificate verification.
func WithSkipTLSVerify(skip bool) Option {
	return func(c *Crawler) error {
		c.config.SkipTLSVerify = skip
		return nil
	}
}

// WithFormat sets the report format: json, markdown or xlsx.
func WithFormat(format string) Option {
	return func(c *Crawler) error {
		c.config.Format = format
		return nil
	}
}

// WithOutputPath sets the report file path.
func WithOutputPath(path string) Option {
	return func(c *Crawler) error {
		c.config.OutputPath = path
		return nil
	}
}

// WithStatePath enables resume snapshots at the given database path.
func WithStatePath(path string) Option {
	return func(c *Crawler) error {
		c.config.StatePath = path
		return nil
	}
}

// WithSaveInterval sets the interval between resume snapshots.
func WithSaveInterval(d time.Duration) Option {
	return func(c *Crawler) error {
		c.config.SaveInterval = d
		return nil
	}
}

// WithSitemap enables seeding the frontier from /sitemap.xml.
func WithSitemap(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.Sitemap = enabled
		return nil
	}
}

// WithProbeWebSockets enables probing discovered ws:// endpoints.
func WithProbeWebSockets(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.ProbeWebSockets = enabled
		return nil
	}
}

// WithWhois enables the domain registration summary.
func WithWhois(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.Whois = enabled
		return nil
	}
}

// WithQuiet suppresses the status line and finding notifications.
func WithQuiet(quiet bool) Option {
	return func(c *Crawler) error {
		c.config.Quiet = quiet
		return nil
	}
}

// WithVerbose enables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(c *Crawler) error {
		c.config.Verbose = verbose
		return nil
	}
}

// WithDebug enables debug logging.
func WithDebug(debug bool) Option {
	return func(c *Crawler) error {
		c.config.Debug = debug
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) error {
		c.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Crawler) error {
		c.metrics = m
		return nil
	}
}

// WithDisplay sets a custom progress display, for captured runs.
func WithDisplay(d *progress.Display) Option {
	return func(c *Crawler) error {
		c.display = d
		return nil
	}
}

// WithStore injects a state store, overriding the StatePath database.
// The store's Close is called at the end of every run; stores meant to
// span runs must make Close reopenable or a no-op.
func WithStore(store state.Store) Option {
	return func(c *Crawler) error {
		c.store = store
		return nil
	}
}

// WithConfig replaces the entire configuration.
func WithConfig(config *Config) Option {
	return func(c *Crawler) error {
		if config == nil {
			return fmt.Errorf("config must not be nil")
		}
		c.config = config
		return nil
	}
}
