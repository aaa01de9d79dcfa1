// Package progress renders the live status line and finding notifications
// for the crawler.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Interval is the redraw cadence of the status line.
const Interval = 100 * time.Millisecond

// Spinner frames cycled by the status line, one step per redraw.
var spinnerFrames = []rune{'⣾', '⣽', '⣻', '⢿', '⡿', '⣟', '⣯', '⣷'}

// ANSI colors for finding notifications.
const (
	colorHTML     = "\033[94m"
	colorBackend  = "\033[92m"
	colorFunction = "\033[93m"
	colorReset    = "\033[0m"
)

// Display owns one terminal line that is rewritten in place. Finding
// notifications print on their own lines; the next redraw restores the
// status line beneath them.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	colored bool
	quiet   bool
	started bool
	stopped bool
	frame   int
	lastLen int
}

// New creates a display on stdout. Colors are dropped when stdout is not
// a terminal; quiet suppresses the status line and notifications.
func New(quiet bool) *Display {
	return &Display{
		out:     os.Stdout,
		colored: !quiet && isTerminal(os.Stdout),
		quiet:   quiet,
	}
}

// NewWithWriter creates a display writing to w, for tests and captured runs.
func NewWithWriter(w io.Writer, colored bool) *Display {
	return &Display{out: w, colored: colored}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Start arms the display. Ticks before Start are dropped.
func (d *Display) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
}

// Tick redraws the status line with current counters and advances the
// spinner.
func (d *Display) Tick(crawled, queued, depth, html, backend, functions int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.quiet || !d.started || d.stopped {
		return
	}

	line := fmt.Sprintf("%c Crawled: %d | Queued: %d | Depth: %d | HTML: %d | Backend: %d | Functions: %d",
		spinnerFrames[d.frame], crawled, queued, depth, html, backend, functions)
	d.frame = (d.frame + 1) % len(spinnerFrames)

	// Pad over any longer previous line so stale characters do not linger.
	rendered := len([]rune(line))
	if d.lastLen > rendered {
		line += strings.Repeat(" ", d.lastLen-rendered)
	}
	d.lastLen = rendered

	fmt.Fprint(d.out, "\r"+line)
}

// FoundHTML announces a newly recorded HTML page.
func (d *Display) FoundHTML(url string) {
	d.notify(colorHTML, "Html", url)
}

// FoundBackend announces a newly recorded backend endpoint.
func (d *Display) FoundBackend(url string) {
	d.notify(colorBackend, "Backend", url)
}

// FoundFunction announces a newly recorded JavaScript function name.
func (d *Display) FoundFunction(name string) {
	d.notify(colorFunction, "Function", name)
}

// notify moves off the status line, prints the finding on its own line and
// leaves the cursor on a fresh one for the next redraw.
func (d *Display) notify(color, label, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.quiet {
		return
	}

	if d.colored {
		fmt.Fprintf(d.out, "\n%s• %s found: %s%s\n", color, label, value, colorReset)
	} else {
		fmt.Fprintf(d.out, "\n• %s found: %s\n", label, value)
	}
	d.lastLen = 0
}

// Stop ends the status line, leaving the cursor on a fresh line.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || !d.started {
		return
	}
	d.stopped = true

	if !d.quiet {
		fmt.Fprintln(d.out)
	}
}

// PrintSummary prints the final scan summary block.
func (d *Display) PrintSummary(html, backend, functions int, reportPath string, duration time.Duration) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "Scan Summary:")
	fmt.Fprintf(d.out, "- HTML Pages: %d\n", html)
	fmt.Fprintf(d.out, "- Backend Endpoints: %d\n", backend)
	fmt.Fprintf(d.out, "- JavaScript Functions: %d\n", functions)
	fmt.Fprintf(d.out, "- Report saved to: %s\n", reportPath)
	fmt.Fprintf(d.out, "- Duration: %s\n", formatDuration(duration))
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
