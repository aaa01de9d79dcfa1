package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/PentesterFlow/WebScout/internal/output"
	"github.com/PentesterFlow/WebScout/internal/progress"
	"github.com/PentesterFlow/WebScout/internal/shutdown"
	"github.com/PentesterFlow/WebScout/internal/state"
	"github.com/PentesterFlow/WebScout/pkg/crawler"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool
	quiet      bool

	// Scan flags
	maxDepth    int
	workers     int
	delay       time.Duration
	timeout     time.Duration
	outputFile  string
	format      string
	headerFlags []string
	userAgent   string
	statePath   string
	sitemapSeed bool
	probeWS     bool
	whoisFlag   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "webscout",
		Short: "WebScout - Web Application Resource Discovery",
		Long: `WebScout maps a single web application from one seed URL: its HTML
pages, backend-style endpoints and JavaScript function names, collected
by a breadth-first crawl that never leaves the target host.`,
		Version: version,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [target]",
		Short: "Scan a target URL",
		Long:  "Crawl a target URL and report discovered pages, endpoints and scripts.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}

	resumeCmd := &cobra.Command{
		Use:   "resume [target]",
		Short: "Resume an interrupted scan",
		Long:  "Continue a previously interrupted scan from its saved session.",
		Args:  cobra.ExactArgs(1),
		RunE:  runResume,
	}

	statusCmd := &cobra.Command{
		Use:   "status [target]",
		Short: "Show a saved scan session",
		Long:  "Print the saved session for a target without crawling.",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("webscout %s\n", version)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress the progress display")

	// Crawl flags, shared by scan and resume
	for _, cmd := range []*cobra.Command{scanCmd, resumeCmd} {
		cmd.Flags().IntVarP(&maxDepth, "depth", "d", crawler.DefaultMaxDepth, "Maximum crawl depth (0 for unlimited)")
		cmd.Flags().IntVarP(&workers, "workers", "w", crawler.DefaultWorkers, "Number of concurrent workers")
		cmd.Flags().DurationVar(&delay, "delay", crawler.DefaultDelay, "Delay between page fetches")
		cmd.Flags().DurationVar(&timeout, "timeout", crawler.DefaultTimeout, "Request timeout")
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report file (default {host}_security_scan.{ext})")
		cmd.Flags().StringVar(&format, "format", "json", "Report format: json, markdown or xlsx")
		cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Custom header as 'Name: Value' (repeatable)")
		cmd.Flags().StringVar(&userAgent, "user-agent", "", "User agent for all requests")
		cmd.Flags().StringVar(&statePath, "state", "", "Session database path (default under the XDG state dir)")
		cmd.Flags().BoolVar(&sitemapSeed, "sitemap", false, "Seed the crawl from /sitemap.xml")
		cmd.Flags().BoolVar(&probeWS, "probe-websockets", false, "Probe discovered WebSocket endpoints")
		cmd.Flags().BoolVar(&whoisFlag, "whois", false, "Include a domain registration summary")
	}

	statusCmd.Flags().StringVar(&statePath, "state", "", "Session database path (default under the XDG state dir)")

	rootCmd.AddCommand(scanCmd, resumeCmd, statusCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	return runCrawl(cmd, normalizeTarget(args[0]), false)
}

func runResume(cmd *cobra.Command, args []string) error {
	return runCrawl(cmd, normalizeTarget(args[0]), true)
}

func runCrawl(cmd *cobra.Command, target string, resume bool) error {
	display := progress.New(quiet)

	opts, err := buildOptions(cmd, target)
	if err != nil {
		return err
	}
	opts = append(opts, crawler.WithDisplay(display))

	c, err := crawler.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	handler, ctx := shutdown.Notify(context.Background(), func() {
		fmt.Println("\nScan interrupted by user!")
	})
	defer handler.Close()

	cfg := c.Config()
	fmt.Printf("Starting security scan for: %s\n", target)
	if cfg.MaxDepth > 0 {
		fmt.Printf("Maximum crawl depth: %d\n", cfg.MaxDepth)
	} else {
		fmt.Println("Maximum crawl depth: unlimited")
	}
	fmt.Println("Press Ctrl+C to stop early...")
	fmt.Println()

	var res *crawler.Result
	if resume {
		res, err = c.Resume(ctx)
	} else {
		res, err = c.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	reportFormat, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	reportPath := cfg.OutputPath
	if reportPath == "" {
		reportPath = output.Filename(target, reportFormat)
	}
	if err := output.WriteFile(reportPath, reportFormat, res.Report()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Println()
	fmt.Println("Scan complete! Final results:")
	display.PrintSummary(
		len(res.HTMLPages),
		len(res.BackendEndpoints),
		len(res.Functions),
		reportPath,
		res.Stats.Duration,
	)

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	target := normalizeTarget(args[0])

	path, err := resolveStatePath(statePath)
	if err != nil {
		return err
	}

	store, err := state.NewBoltStore(path, target)
	if err != nil {
		return fmt.Errorf("failed to open session database: %w", err)
	}
	defer store.Close()

	saved, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if saved == nil {
		return fmt.Errorf("no saved session for %s", target)
	}

	fmt.Printf("Saved session for %s\n", saved.Target)
	fmt.Printf("- Started: %s\n", saved.StartedAt.Format(time.RFC3339))
	fmt.Printf("- Updated: %s\n", saved.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("- Pages crawled: %d\n", saved.Crawled)
	fmt.Printf("- Scripts analyzed: %d\n", saved.ScriptsAnalyzed)
	fmt.Printf("- Bytes fetched: %d\n", saved.BytesFetched)
	fmt.Printf("- Pending queue: %d\n", len(saved.Queue))
	fmt.Printf("- HTML pages: %d\n", len(saved.HTMLPages))
	fmt.Printf("- Backend endpoints: %d\n", len(saved.Backend))
	fmt.Printf("- JavaScript functions: %d\n", len(saved.Functions))

	return nil
}

// buildOptions turns the config file and command-line flags into crawler
// options. Flags the user actually set take precedence over file values;
// everything else keeps the documented defaults.
func buildOptions(cmd *cobra.Command, target string) ([]crawler.Option, error) {
	var opts []crawler.Option
	var fileConfig *crawler.Config

	if configFile != "" {
		cfg, err := crawler.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		fileConfig = cfg
		opts = append(opts, crawler.WithConfig(cfg))
	}

	opts = append(opts, crawler.WithTarget(target))

	flags := cmd.Flags()
	if flags.Changed("depth") {
		opts = append(opts, crawler.WithDepth(maxDepth))
	}
	if flags.Changed("workers") {
		opts = append(opts, crawler.WithWorkers(workers))
	}
	if flags.Changed("delay") {
		opts = append(opts, crawler.WithDelay(delay))
	}
	if flags.Changed("timeout") {
		opts = append(opts, crawler.WithTimeout(timeout))
	}
	if flags.Changed("output") {
		opts = append(opts, crawler.WithOutputPath(outputFile))
	}
	if flags.Changed("format") {
		opts = append(opts, crawler.WithFormat(format))
	}
	if flags.Changed("user-agent") {
		opts = append(opts, crawler.WithUserAgent(userAgent))
	}
	if flags.Changed("header") {
		headers, err := parseHeaders(headerFlags)
		if err != nil {
			return nil, err
		}
		opts = append(opts, crawler.WithHeaders(headers))
	}
	if flags.Changed("sitemap") {
		opts = append(opts, crawler.WithSitemap(sitemapSeed))
	}
	if flags.Changed("probe-websockets") {
		opts = append(opts, crawler.WithProbeWebSockets(probeWS))
	}
	if flags.Changed("whois") {
		opts = append(opts, crawler.WithWhois(whoisFlag))
	}
	if flags.Changed("verbose") {
		opts = append(opts, crawler.WithVerbose(verbose))
	}
	if flags.Changed("debug") {
		opts = append(opts, crawler.WithDebug(debug))
	}
	if flags.Changed("quiet") {
		opts = append(opts, crawler.WithQuiet(quiet))
	}

	// Session snapshots are always on: explicit flag, then config file,
	// then the shared XDG database.
	switch {
	case flags.Changed("state"):
		opts = append(opts, crawler.WithStatePath(statePath))
	case fileConfig != nil && fileConfig.StatePath != "":
		// Keep the file value.
	default:
		path, err := resolveStatePath("")
		if err != nil {
			return nil, err
		}
		opts = append(opts, crawler.WithStatePath(path))
	}

	return opts, nil
}

// resolveStatePath returns the explicit path unchanged, or the shared
// session database under the XDG state directory.
func resolveStatePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	resolved, err := xdg.StateFile("webscout/sessions.db")
	if err != nil {
		return "", fmt.Errorf("failed to resolve state directory: %w", err)
	}
	return resolved, nil
}

// normalizeTarget defaults schemeless targets to http.
func normalizeTarget(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "http://" + target
}

// parseHeaders splits repeatable "Name: Value" flags into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: Value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
