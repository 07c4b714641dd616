package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/skybow044/dalghaksub/internal/model"
)

// MarkdownWriter outputs summaries in GitHub-flavored Markdown, suitable
// for a CI job summary or a repository README section.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(report *model.HarvestReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeProtocols(md, report)
	w.writeOutputs(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.HarvestReport) {
	md.H1("Subscription Harvest")
	md.PlainText("")

	rows := [][]string{
		{"Channel", "`" + report.Channel + "`"},
		{"Started", report.StartedAt.Format(timeLayout)},
		{"Elapsed", roundDuration(report.Elapsed).String()},
		{"Pages Fetched", strconv.Itoa(report.PagesFetched)},
		{"Messages", strconv.Itoa(len(report.Messages)) + " / " + strconv.Itoa(report.RequestedCount)},
	}
	if report.StopReason != "" {
		rows = append(rows, []string{"Stop Reason", string(report.StopReason)})
	}
	if report.GeoQueries > 0 || report.Annotated > 0 {
		rows = append(rows,
			[]string{"Annotated", strconv.Itoa(report.Annotated)},
			[]string{"Geo Lookups", strconv.Itoa(report.GeoQueries) + " (" + strconv.Itoa(report.GeoFailures) + " failed)"},
		)
	}
	rows = append(rows, []string{"Status", w.getStatusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.HarvestReport) string {
	switch {
	case report.TimedOut:
		return "⚠️ Cancelled"
	case report.ErrorMessage != "":
		return "❌ Error - " + report.ErrorMessage
	case report.Unchanged():
		return "✅ Complete (unchanged)"
	default:
		return "✅ Complete"
	}
}

// writeAlert writes one alert summarizing the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.HarvestReport) {
	switch {
	case report.ErrorMessage != "":
		md.Cautionf("The harvest failed and no subscription files were written: %s", report.ErrorMessage)
	case report.TimedOut:
		md.Warningf("The harvest was cancelled before it finished.")
	case report.Unchanged():
		md.Note("The subscription is identical to the previous run.")
	case report.GeoFailures > 0:
		md.Importantf("%d address(es) could not be geolocated.", report.GeoFailures)
	default:
		md.Tip("Subscription updated.")
	}
	md.PlainText("")
}

// writeProtocols writes the protocol table and pie chart.
func (w *MarkdownWriter) writeProtocols(md *markdown.Markdown, report *model.HarvestReport) {
	rows := protocolRows(report)
	if len(rows) == 0 {
		return
	}

	md.H2("Protocols")
	md.PlainText("")

	tableRows := make([][]string, 0, len(rows)+1)
	for _, row := range rows {
		tableRows = append(tableRows, []string{row.Protocol.String(), strconv.Itoa(row.Count)})
	}
	tableRows = append(tableRows, []string{"**Total**", "**" + strconv.Itoa(len(report.Links)) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Protocol", "Links"},
		Rows:   tableRows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Links by Protocol"),
		piechart.WithShowData(true),
	)
	for _, row := range rows {
		chart.LabelAndIntValue(row.Protocol.String(), uint64(row.Count)) //nolint:gosec // counts are non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeOutputs writes the artifact table.
func (w *MarkdownWriter) writeOutputs(md *markdown.Markdown, report *model.HarvestReport) {
	list := artifacts(report)
	if len(list) == 0 {
		return
	}

	md.H2("Outputs")
	md.PlainText("")

	rows := make([][]string, len(list))
	for i, a := range list {
		rows[i] = []string{a.Name, strconv.Itoa(a.Lines)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Artifact", "Lines"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Digest != "" {
		md.PlainTextf("SHA3-256: `%s`", report.Digest)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [dalghaksub](https://github.com/skybow044/dalghaksub)*")
}
