package report

import (
	"io"
	"time"

	"github.com/skybow044/dalghaksub/internal/model"
)

// Writer defines the interface for summary output.
type Writer interface {
	// Write outputs the summary of report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.HarvestReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.HarvestReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout formats timestamps in every summary.
const timeLayout = "2006-01-02 15:04:05 MST"

// status describes how the run ended.
func status(report *model.HarvestReport) string {
	switch {
	case report.TimedOut:
		return "cancelled"
	case report.ErrorMessage != "":
		return "failed: " + report.ErrorMessage
	case report.Unchanged():
		return "complete (unchanged since last run)"
	default:
		return "complete"
	}
}

// protocolRows returns the non-zero protocol counts in stable order.
func protocolRows(report *model.HarvestReport) []protocolCount {
	counts := report.ProtocolCounts()
	rows := make([]protocolCount, 0, len(counts))
	for _, p := range model.Protocols {
		if counts[p] > 0 {
			rows = append(rows, protocolCount{Protocol: p, Count: counts[p]})
		}
	}
	return rows
}

type protocolCount struct {
	Protocol model.Protocol
	Count    int
}

// artifacts lists the main, partition and combined artifacts in output order.
func artifacts(report *model.HarvestReport) []model.Artifact {
	var list []model.Artifact
	if report.Artifact != nil {
		list = append(list, *report.Artifact)
	}
	list = append(list, report.Partitions...)
	if report.Combined != nil {
		list = append(list, *report.Combined)
	}
	return list
}

func roundDuration(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
