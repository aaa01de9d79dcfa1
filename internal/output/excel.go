package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter renders the report as an xlsx workbook, one sheet per
// finding category.
type ExcelWriter struct{}

// NewExcelWriter creates an xlsx writer.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// Write renders the full report.
func (e *ExcelWriter) Write(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := e.writeSummary(f, headerStyle, r); err != nil {
		return err
	}
	if err := writeSheet(f, headerStyle, "HTML Pages", []string{"URL"}, listRows(r.HTMLPages)); err != nil {
		return err
	}
	if err := writeSheet(f, headerStyle, "Backend Endpoints", []string{"URL"}, listRows(r.BackendEndpoints)); err != nil {
		return err
	}
	if err := writeSheet(f, headerStyle, "Functions", []string{"Name"}, listRows(r.Functions)); err != nil {
		return err
	}

	if len(r.Forms) > 0 {
		rows := make([][]interface{}, len(r.Forms))
		for i, form := range r.Forms {
			inputs := make([]string, len(form.Inputs))
			for j, in := range form.Inputs {
				inputs[j] = in.Name + " (" + in.Type + ")"
			}
			rows[i] = []interface{}{form.Action, form.Method, form.PageURL, strings.Join(inputs, ", ")}
		}
		if err := writeSheet(f, headerStyle, "Forms", []string{"Action", "Method", "Page", "Inputs"}, rows); err != nil {
			return err
		}
	}

	if len(r.WebSockets) > 0 {
		rows := make([][]interface{}, len(r.WebSockets))
		for i, ws := range r.WebSockets {
			rows[i] = []interface{}{ws.URL, ws.Reachable, ws.Subprotocol, ws.HandshakeMS, ws.Error}
		}
		if err := writeSheet(f, headerStyle, "WebSockets", []string{"URL", "Reachable", "Subprotocol", "Handshake (ms)", "Error"}, rows); err != nil {
			return err
		}
	}

	if len(r.Errors) > 0 {
		rows := make([][]interface{}, len(r.Errors))
		for i, ce := range r.Errors {
			rows[i] = []interface{}{ce.URL, ce.Category, ce.Error}
		}
		if err := writeSheet(f, headerStyle, "Errors", []string{"URL", "Category", "Error"}, rows); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func (e *ExcelWriter) writeSummary(f *excelize.File, headerStyle int, r *Report) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := [][2]interface{}{
		{"Target", r.Target},
		{"HTML Pages", r.Stats.TotalHTML},
		{"Backend Endpoints", r.Stats.TotalBackend},
		{"JavaScript Functions", r.Stats.TotalFunctions},
		{"Max Depth", formatDepth(r.Stats.MaxDepth)},
	}
	if s := r.Session; s != nil {
		rows = append(rows,
			[2]interface{}{"Started", s.StartedAt.Format("2006-01-02 15:04:05")},
			[2]interface{}{"Duration (s)", s.DurationSeconds},
			[2]interface{}{"Pages Crawled", s.PagesCrawled},
			[2]interface{}{"Scripts Analyzed", s.ScriptsAnalyzed},
			[2]interface{}{"Bytes Fetched", s.BytesFetched},
		)
	}

	for i, row := range rows {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "B", 30)
}

func writeSheet(f *excelize.File, headerStyle int, sheet string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(sheet, "A", "A", 60)
}

func listRows(items []string) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, item := range items {
		rows[i] = []interface{}{item}
	}
	return rows
}
