package report

import (
	"encoding/json"
	"io"

	"github.com/skybow044/dalghaksub/internal/model"
)

// JSONWriter outputs summaries in JSON format for scripts.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the JSON form of a harvest summary. It adds derived
// values to the report without changing model.HarvestReport.
type JSONReport struct {
	*model.HarvestReport

	// Messages is the number of collected messages.
	MessageCount int `json:"messages"`

	// LinkCount is the number of links (or lines, in line mode).
	LinkCount int `json:"links"`

	// Protocols holds the link count per protocol.
	Protocols map[model.Protocol]int `json:"protocols"`

	// ElapsedMS is Elapsed in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`

	// Unchanged is true when the output matches the previous run.
	Unchanged bool `json:"unchanged"`
}

// NewJSONReport wraps report with its derived values.
func NewJSONReport(report *model.HarvestReport) *JSONReport {
	return &JSONReport{
		HarvestReport: report,
		MessageCount:  len(report.Messages),
		LinkCount:     max(len(report.Links), len(report.Lines)),
		Protocols:     report.ProtocolCounts(),
		ElapsedMS:     report.Elapsed.Milliseconds(),
		Unchanged:     report.Unchanged(),
	}
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(report *model.HarvestReport) (int, error) {
	return w.writeJSON(NewJSONReport(report))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
