package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/skybow044/dalghaksub/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-step and geolocation details.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(report *model.HarvestReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeLinks(&sb, report)
	w.writeOutputs(&sb, report)
	if w.verbose {
		w.writeDetails(&sb, report)
	}
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.HarvestReport) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                    DALGHAKSUB HARVEST\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Channel:     %s\n", report.Channel)
	if report.SourceURL != "" {
		fmt.Fprintf(sb, "Source:      %s\n", report.SourceURL)
	}
	fmt.Fprintf(sb, "Started:     %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Elapsed:     %s\n", roundDuration(report.Elapsed))
	fmt.Fprintf(sb, "Pages:       %d\n", report.PagesFetched)
	fmt.Fprintf(sb, "Messages:    %d of %d requested\n", len(report.Messages), report.RequestedCount)
	if report.StopReason != "" {
		fmt.Fprintf(sb, "Stopped:     %s\n", report.StopReason)
	}
	fmt.Fprintf(sb, "Status:      %s\n", status(report))
	sb.WriteString("\n")
}

// writeLinks writes the per-protocol link counts.
func (w *SimpleWriter) writeLinks(sb *strings.Builder, report *model.HarvestReport) {
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\nLINKS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n\n")

	if len(report.Links) == 0 && len(report.Lines) > 0 {
		fmt.Fprintf(sb, "  lines:     %d\n", len(report.Lines))
	}
	for _, row := range protocolRows(report) {
		fmt.Fprintf(sb, "  %-10s %d\n", row.Protocol.String()+":", row.Count)
	}
	fmt.Fprintf(sb, "  %-10s %d\n", "total:", max(len(report.Links), len(report.Lines)))

	if report.GeoQueries > 0 || report.Annotated > 0 {
		fmt.Fprintf(sb, "\n  annotated: %d (geo queries %d, failed %d)\n",
			report.Annotated, report.GeoQueries, report.GeoFailures)
	}
	sb.WriteString("\n")
}

// writeOutputs writes the artifact list and digest.
func (w *SimpleWriter) writeOutputs(sb *strings.Builder, report *model.HarvestReport) {
	list := artifacts(report)
	if len(list) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\nOUTPUTS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n\n")

	for _, a := range list {
		fmt.Fprintf(sb, "  [+] %-10s %d lines\n", a.Name, a.Lines)
	}
	if report.Digest != "" {
		fmt.Fprintf(sb, "\n  sha3-256:  %s\n", report.Digest)
	}
	sb.WriteString("\n")
}

// writeDetails writes the executed steps.
func (w *SimpleWriter) writeDetails(sb *strings.Builder, report *model.HarvestReport) {
	fmt.Fprintf(sb, "Steps: %s\n", strings.Join(report.PerformedSteps, " -> "))
	if report.PreviousDigest != "" {
		fmt.Fprintf(sb, "Previous digest: %s\n", report.PreviousDigest)
	}
	sb.WriteString("\n")
}
