// Package output renders finished scan reports.
package output

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Format identifies a report serialization.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatExcel    Format = "xlsx"
)

// ParseFormat maps a CLI format name to a Format. The empty string
// selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatExcel:
		return "xlsx"
	default:
		return "json"
	}
}

// Writer serializes a report to one format.
type Writer interface {
	Write(w io.Writer, r *Report) error
}

// NewWriter returns the writer for a format.
func NewWriter(format Format) Writer {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter()
	case FormatExcel:
		return NewExcelWriter()
	default:
		return NewJSONWriter(true)
	}
}

// Filename derives the report file name from the target URL host. A port
// separator becomes an underscore so the name stays filesystem-safe.
func Filename(target string, format Format) string {
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ReplaceAll(host, ":", "_")
	return host + "_security_scan." + format.Extension()
}

// WriteFile renders the report to path in the given format.
func WriteFile(path string, format Format, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := NewWriter(format).Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
