package output

import (
	"encoding/json"
	"io"
)

// JSONWriter writes the report as JSON, the default report format.
type JSONWriter struct {
	pretty bool
}

// NewJSONWriter creates a JSON writer. Pretty enables two-space
// indentation.
func NewJSONWriter(pretty bool) *JSONWriter {
	return &JSONWriter{pretty: pretty}
}

// Write serializes the report. The finding lists always serialize as
// arrays, never null, so downstream tooling can index them blindly.
func (j *JSONWriter) Write(w io.Writer, r *Report) error {
	rep := *r
	if rep.HTMLPages == nil {
		rep.HTMLPages = []string{}
	}
	if rep.BackendEndpoints == nil {
		rep.BackendEndpoints = []string{}
	}
	if rep.Functions == nil {
		rep.Functions = []string{}
	}

	var (
		data []byte
		err  error
	)
	if j.pretty {
		data, err = json.MarshalIndent(&rep, "", "  ")
	} else {
		data, err = json.Marshal(&rep)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}
