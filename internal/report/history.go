package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/skybow044/dalghaksub/internal/database"
	"github.com/skybow044/dalghaksub/internal/model"
)

// shortDigest is the number of digest characters shown in history tables.
const shortDigest = 12

// historyRow is one rendered history entry. Changed compares a run with
// the older run listed after it.
type historyRow struct {
	run     database.HarvestRun
	changed string
}

// historyRows marks each run as changed or unchanged. runs are newest first.
func historyRows(runs []database.HarvestRun) []historyRow {
	rows := make([]historyRow, len(runs))
	for i, run := range runs {
		rows[i] = historyRow{run: run, changed: "-"}
		if i+1 < len(runs) && run.Digest != "" {
			if run.Digest == runs[i+1].Digest {
				rows[i].changed = "no"
			} else {
				rows[i].changed = "yes"
			}
		}
	}
	return rows
}

// protocolSummary renders "vless=3 vmess=1" in protocol order.
func protocolSummary(counts map[string]int) string {
	var parts []string
	for _, p := range model.Protocols {
		if n := counts[p.String()]; n > 0 {
			parts = append(parts, p.String()+"="+strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func truncateDigest(d string) string {
	if len(d) <= shortDigest {
		return d
	}
	return d[:shortDigest]
}

// WriteHistory writes the run history of channel as a text table.
func WriteHistory(w io.Writer, channel string, runs []database.HarvestRun) error {
	var sb strings.Builder

	if len(runs) == 0 {
		fmt.Fprintf(&sb, "No harvest history found for %s\n", channel)
		_, err := io.WriteString(w, sb.String())
		return err
	}

	fmt.Fprintf(&sb, "Harvest history for %s (%d runs):\n\n", channel, len(runs))
	fmt.Fprintf(&sb, "  %-6s  %-23s  %-5s  %-5s  %-8s  %-12s  %s\n",
		"ID", "Date", "Msgs", "Links", "Changed", "Digest", "Protocols")
	sb.WriteString("  " + strings.Repeat("-", 90) + "\n")

	for _, row := range historyRows(runs) {
		fmt.Fprintf(&sb, "  %-6d  %-23s  %-5d  %-5d  %-8s  %-12s  %s\n",
			row.run.ID,
			row.run.Timestamp.Format(timeLayout),
			row.run.Messages,
			row.run.Links,
			row.changed,
			truncateDigest(row.run.Digest),
			protocolSummary(row.run.Protocols),
		)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteHistoryMarkdown writes the run history of channel as a Markdown table.
func WriteHistoryMarkdown(w io.Writer, channel string, runs []database.HarvestRun) error {
	md := markdown.NewMarkdown(w)
	md.H2("Harvest History: " + channel)
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No harvest history found.")
		return md.Build()
	}

	rows := make([][]string, 0, len(runs))
	for _, row := range historyRows(runs) {
		rows = append(rows, []string{
			strconv.FormatInt(row.run.ID, 10),
			row.run.Timestamp.Format(timeLayout),
			strconv.Itoa(row.run.Messages),
			strconv.Itoa(row.run.Links),
			row.changed,
			"`" + truncateDigest(row.run.Digest) + "`",
			protocolSummary(row.run.Protocols),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Date", "Messages", "Links", "Changed", "Digest", "Protocols"},
		Rows:   rows,
	})
	return md.Build()
}
