package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/WebScout/internal/output"
)

// Configuration defaults. Depth, worker count and delay match the
// documented CLI defaults.
const (
	DefaultMaxDepth     = 3
	DefaultWorkers      = 1
	DefaultDelay        = 500 * time.Millisecond
	DefaultTimeout      = 10 * time.Second
	DefaultSaveInterval = 30 * time.Second
)

// Config holds all scan configuration.
type Config struct {
	// Target URL to scan
	Target string `json:"target" yaml:"target"`

	// Maximum crawl depth; zero removes the limit
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Number of concurrent workers
	Workers int `json:"workers" yaml:"workers"`

	// Fixed delay between page fetches
	Delay time.Duration `json:"delay" yaml:"delay"`

	// Request timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// User agent for all requests; empty selects the client default
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`

	// Custom headers included in all requests
	CustomHeaders map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`

	// Skip TLS certificate verification
	SkipTLSVerify bool `json:"skip_tls_verify" yaml:"skip_tls_verify"`

	// Report format: json, markdown or xlsx
	Format string `json:"format" yaml:"format"`

	// Report file path; empty lets the CLI derive one from the target host
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// Resume snapshot database path; empty disables persistence
	StatePath string `json:"state_path,omitempty" yaml:"state_path,omitempty"`

	// Interval between resume snapshots
	SaveInterval time.Duration `json:"save_interval" yaml:"save_interval"`

	// Seed the frontier from /sitemap.xml
	Sitemap bool `json:"sitemap" yaml:"sitemap"`

	// Probe discovered ws:// and wss:// endpoints on the target host
	ProbeWebSockets bool `json:"probe_websockets" yaml:"probe_websockets"`

	// Include a domain registration summary in the report
	Whois bool `json:"whois" yaml:"whois"`

	// Suppress the status line and finding notifications
	Quiet bool `json:"quiet" yaml:"quiet"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug logging
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultConfig returns a configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:      DefaultMaxDepth,
		Workers:       DefaultWorkers,
		Delay:         DefaultDelay,
		Timeout:       DefaultTimeout,
		SkipTLSVerify: true,
		Format:        string(output.FormatJSON),
		SaveInterval:  DefaultSaveInterval,
	}
}

// LoadConfig loads configuration from a file (YAML or JSON). File values
// are layered over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves the configuration to a file. A .json suffix selects
// JSON; everything else is written as YAML.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target URL is required")
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
