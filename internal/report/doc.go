// Package report renders harvest summaries and run history.
//
// Three formats are supported:
//   - text (SimpleWriter): a short human-readable summary for the terminal
//   - JSON (JSONWriter): the report fields for scripts
//   - Markdown (MarkdownWriter): tables, alerts and a protocol pie chart
//     built with nao1215/markdown
//
// Summaries never contain share-links themselves; only counts, artifact
// names and digests are rendered.
package report
