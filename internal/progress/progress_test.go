package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Display Tests
// =============================================================================

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)

	if d == nil {
		t.Fatal("NewWithWriter() returned nil")
	}
	if d.colored {
		t.Error("colored = true, want false")
	}
}

func TestDisplay_Tick_Format(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)
	d.Start()

	d.Tick(5, 10, 2, 3, 4, 6)

	want := "\r⣾ Crawled: 5 | Queued: 10 | Depth: 2 | HTML: 3 | Backend: 4 | Functions: 6"
	if got := buf.String(); got != want {
		t.Errorf("Tick output = %q, want %q", got, want)
	}
}

func TestDisplay_Tick_SpinnerAdvances(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)
	d.Start()

	for i := 0; i < len(spinnerFrames)+1; i++ {
		d.Tick(0, 0, 0, 0, 0, 0)
	}

	out := buf.String()
	for _, frame := range spinnerFrames {
		if !strings.ContainsRune(out, frame) {
			t.Errorf("output missing spinner frame %c", frame)
		}
	}
	// The ninth tick wraps back to the first frame.
	if strings.Count(out, string(spinnerFrames[0])) != 2 {
		t.Errorf("first frame should appear twice after wrap, output %q", out)
	}
}

func TestDisplay_Tick_BeforeStart(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)

	d.Tick(1, 1, 1, 1, 1, 1)

	if buf.Len() != 0 {
		t.Errorf("Tick before Start wrote %q", buf.String())
	}
}

func TestDisplay_Tick_PadsShorterLine(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)
	d.Start()

	d.Tick(1000, 1000, 10, 1000, 1000, 1000)
	long := buf.Len()
	buf.Reset()

	d.Tick(1, 1, 1, 1, 1, 1)
	if buf.Len() < long {
		t.Errorf("shorter redraw wrote %d bytes, want at least %d to cover the previous line", buf.Len(), long)
	}
	if !strings.HasSuffix(buf.String(), " ") {
		t.Error("shorter redraw should end with padding spaces")
	}
}

func TestDisplay_FoundHTML_Colored(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, true)
	d.Start()

	d.FoundHTML("http://example.com/about.html")

	want := "\n\033[94m• Html found: http://example.com/about.html\033[0m\n"
	if got := buf.String(); got != want {
		t.Errorf("FoundHTML output = %q, want %q", got, want)
	}
}

func TestDisplay_FoundBackend_Colored(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, true)
	d.Start()

	d.FoundBackend("http://example.com/api/users")

	want := "\n\033[92m• Backend found: http://example.com/api/users\033[0m\n"
	if got := buf.String(); got != want {
		t.Errorf("FoundBackend output = %q, want %q", got, want)
	}
}

func TestDisplay_FoundFunction_Colored(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, true)
	d.Start()

	d.FoundFunction("loadData")

	want := "\n\033[93m• Function found: loadData\033[0m\n"
	if got := buf.String(); got != want {
		t.Errorf("FoundFunction output = %q, want %q", got, want)
	}
}

func TestDisplay_Found_Plain(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)
	d.Start()

	d.FoundHTML("http://example.com/index.html")

	want := "\n• Html found: http://example.com/index.html\n"
	if got := buf.String(); got != want {
		t.Errorf("plain output = %q, want %q", got, want)
	}
}

func TestDisplay_Quiet(t *testing.T) {
	var buf bytes.Buffer
	d := &Display{out: &buf, quiet: true}
	d.Start()

	d.Tick(1, 1, 1, 1, 1, 1)
	d.FoundHTML("http://example.com/")
	d.Stop()

	if buf.Len() != 0 {
		t.Errorf("quiet display wrote %q", buf.String())
	}
}

func TestDisplay_Stop(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)
	d.Start()

	d.Stop()
	d.Stop() // second call is a no-op

	if got := buf.String(); got != "\n" {
		t.Errorf("Stop output = %q, want a single newline", got)
	}

	d.Tick(1, 1, 1, 1, 1, 1)
	if got := buf.String(); got != "\n" {
		t.Errorf("Tick after Stop wrote %q", got)
	}
}

func TestDisplay_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf, false)

	d.PrintSummary(12, 5, 31, "example.com_security_scan.json", 65*time.Second)

	out := buf.String()
	wantLines := []string{
		"Scan Summary:",
		"- HTML Pages: 12",
		"- Backend Endpoints: 5",
		"- JavaScript Functions: 31",
		"- Report saved to: example.com_security_scan.json",
		"- Duration: 1m05s",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line) {
			t.Errorf("summary missing %q, output:\n%s", line, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{65 * time.Second, "1m05s"},
		{3665 * time.Second, "1h01m05s"},
		{0, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
			}
		})
	}
}
