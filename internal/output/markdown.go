package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders the report as a Markdown document for sharing
// and documentation.
type MarkdownWriter struct{}

// NewMarkdownWriter creates a Markdown writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Write renders the full report.
func (m *MarkdownWriter) Write(w io.Writer, r *Report) error {
	md := markdown.NewMarkdown(w)

	m.writeHeader(md, r)
	m.writeFindings(md, r)
	m.writeForms(md, r)
	m.writeWebSockets(md, r)
	m.writeWhois(md, r)
	m.writeErrors(md, r)

	return md.Build()
}

func (m *MarkdownWriter) writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Security Scan Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + r.Target + "`"},
		{"HTML Pages", strconv.Itoa(r.Stats.TotalHTML)},
		{"Backend Endpoints", strconv.Itoa(r.Stats.TotalBackend)},
		{"JavaScript Functions", strconv.Itoa(r.Stats.TotalFunctions)},
		{"Max Depth", formatDepth(r.Stats.MaxDepth)},
	}
	if s := r.Session; s != nil {
		rows = append(rows,
			[]string{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			[]string{"Duration", fmt.Sprintf("%.1fs", s.DurationSeconds)},
			[]string{"Pages Crawled", strconv.Itoa(s.PagesCrawled)},
			[]string{"Scripts Analyzed", strconv.Itoa(s.ScriptsAnalyzed)},
			[]string{"Bytes Fetched", strconv.FormatInt(s.BytesFetched, 10)},
		)
		if s.Interrupted {
			rows = append(rows, []string{"Status", "interrupted"})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeFindings(md *markdown.Markdown, r *Report) {
	writeListSection(md, "HTML Pages", r.HTMLPages)
	writeListSection(md, "Backend Endpoints", r.BackendEndpoints)
	writeListSection(md, "JavaScript Functions", r.Functions)
}

func writeListSection(md *markdown.Markdown, title string, items []string) {
	md.H2(title)
	md.PlainText("")
	if len(items) == 0 {
		md.PlainText("None found.")
		md.PlainText("")
		return
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (m *MarkdownWriter) writeForms(md *markdown.Markdown, r *Report) {
	if len(r.Forms) == 0 {
		return
	}

	md.H2("Forms")
	md.PlainText("")

	rows := make([][]string, len(r.Forms))
	for i, f := range r.Forms {
		inputs := make([]string, len(f.Inputs))
		for j, in := range f.Inputs {
			inputs[j] = in.Name + " (" + in.Type + ")"
		}
		rows[i] = []string{
			"`" + f.Action + "`",
			f.Method,
			"`" + f.PageURL + "`",
			strings.Join(inputs, ", "),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Action", "Method", "Page", "Inputs"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeWebSockets(md *markdown.Markdown, r *Report) {
	if len(r.WebSockets) == 0 {
		return
	}

	md.H2("WebSocket Endpoints")
	md.PlainText("")

	rows := make([][]string, len(r.WebSockets))
	for i, ws := range r.WebSockets {
		status := "unreachable"
		if ws.Reachable {
			status = fmt.Sprintf("reachable (%dms)", ws.HandshakeMS)
		}
		sub := ws.Subprotocol
		if sub == "" {
			sub = "-"
		}
		rows[i] = []string{"`" + ws.URL + "`", status, sub}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Subprotocol"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeWhois(md *markdown.Markdown, r *Report) {
	w := r.Whois
	if w == nil {
		return
	}

	md.H2("Domain Registration")
	md.PlainText("")

	rows := [][]string{
		{"Domain", "`" + w.Domain + "`"},
	}
	if w.Registrar != "" {
		rows = append(rows, []string{"Registrar", w.Registrar})
	}
	if w.CreatedDate != "" {
		rows = append(rows, []string{"Created", w.CreatedDate})
	}
	if w.ExpirationDate != "" {
		rows = append(rows, []string{"Expires", w.ExpirationDate})
	}
	if len(w.NameServers) > 0 {
		rows = append(rows, []string{"Name Servers", strings.Join(w.NameServers, ", ")})
	}
	if w.DNSSEC {
		rows = append(rows, []string{"DNSSEC", "signed"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeErrors(md *markdown.Markdown, r *Report) {
	if len(r.Errors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")

	rows := make([][]string, len(r.Errors))
	for i, e := range r.Errors {
		rows[i] = []string{"`" + e.URL + "`", e.Category, e.Error}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Category", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func formatDepth(depth int) string {
	if depth <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(depth)
}
