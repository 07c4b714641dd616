package model

import "time"

// StopReason records which crawl stop condition fired.
type StopReason string

// Crawl stop reasons, in the order they are checked.
const (
	StopReasonCountReached StopReason = "count_reached"
	StopReasonEmptyPage    StopReason = "empty_page"
	StopReasonNoProgress   StopReason = "no_progress"
	StopReasonPageCeiling  StopReason = "page_ceiling"
	StopReasonFetchFailed  StopReason = "fetch_failed"
)

// HarvestReport is the state of one pipeline run.
// Every per-run collection (messages, links, artifacts) lives here instead of
// in package-level variables, and pipeline steps fill it in order.
type HarvestReport struct {
	// Channel is the channel name or URL the run was started with.
	Channel string `json:"channel"`

	// SourceURL is the resolved first-page URL.
	SourceURL string `json:"source_url"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total pipeline duration.
	Elapsed time.Duration `json:"elapsed"`

	// RequestedCount is the number of messages the crawl aimed for.
	RequestedCount int `json:"requested_count"`

	// PagesFetched is the number of channel pages requested.
	PagesFetched int `json:"pages_fetched"`

	// StopReason explains why pagination ended.
	StopReason StopReason `json:"stop_reason,omitempty"`

	// Messages holds the finalized, deduplicated messages.
	Messages []Message `json:"-"`

	// Links holds validated (and later renamed/annotated) share-links.
	Links []ShareLink `json:"-"`

	// Lines holds the output lines of the line-annotation variant.
	Lines []string `json:"-"`

	// Artifact is the main plain/base64 output.
	Artifact *Artifact `json:"artifact,omitempty"`

	// Partitions are the per-protocol artifacts, in bucket order.
	Partitions []Artifact `json:"partitions,omitempty"`

	// Combined is the section-headed all-protocols artifact.
	Combined *Artifact `json:"combined,omitempty"`

	// Annotated counts lines that received a suffix tag.
	Annotated int `json:"annotated"`

	// GeoQueries counts backend geolocation queries (cache misses).
	GeoQueries int `json:"geo_queries"`

	// GeoFailures counts IPs that could not be resolved.
	GeoFailures int `json:"geo_failures"`

	// Digest is the hex SHA3-256 of the main plain artifact.
	Digest string `json:"digest,omitempty"`

	// PreviousDigest is the digest stored by the last run for the same channel.
	PreviousDigest string `json:"previous_digest,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps"`

	// TimedOut is set when the run was cancelled.
	TimedOut bool `json:"timed_out"`

	// Error holds the failure that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, kept for JSON output.
	ErrorMessage string `json:"error,omitempty"`
}

// NewHarvestReport creates an empty report for the given channel.
func NewHarvestReport(channel string, requestedCount int) *HarvestReport {
	return &HarvestReport{
		Channel:        channel,
		RequestedCount: requestedCount,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// ProtocolCounts returns how many links each protocol contributed.
func (r *HarvestReport) ProtocolCounts() map[Protocol]int {
	counts := make(map[Protocol]int)
	for _, l := range r.Links {
		counts[l.Protocol]++
	}
	return counts
}

// Unchanged reports whether the output is identical to the previous run.
func (r *HarvestReport) Unchanged() bool {
	return r.Digest != "" && r.Digest == r.PreviousDigest
}
