package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skybow044/dalghaksub/internal/annotate"
	"github.com/skybow044/dalghaksub/internal/crawler"
	"github.com/skybow044/dalghaksub/internal/database"
	"github.com/skybow044/dalghaksub/internal/geo"
	"github.com/skybow044/dalghaksub/internal/model"
	"github.com/skybow044/dalghaksub/internal/output"
	"github.com/skybow044/dalghaksub/internal/sharelink"
)

// ErrNothingToBuild is returned by BuildStep when earlier steps produced
// neither links nor lines.
var ErrNothingToBuild = errors.New("nothing to build: no links or lines collected")

// CrawlStep collects messages from the channel.
type CrawlStep struct {
	// crawler walks the channel pages.
	crawler *crawler.Crawler

	// count is the number of messages to collect.
	count int
}

// NewCrawlStep creates a crawl step collecting count messages.
func NewCrawlStep(c *crawler.Crawler, count int) *CrawlStep {
	return &CrawlStep{crawler: c, count: count}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. Finishing with no message at all is an error.
func (s *CrawlStep) Do(ctx context.Context, report *model.HarvestReport) error {
	result, err := s.crawler.Crawl(ctx, s.count)
	if err != nil {
		return fmt.Errorf("failed to crawl %s: %w", report.SourceURL, err)
	}

	report.Messages = result.Messages
	report.PagesFetched = result.PagesFetched
	report.StopReason = result.StopReason

	if len(report.Messages) == 0 {
		return crawler.ErrNoMessages
	}
	return nil
}

// InputStep supplies messages read from a local source instead of a crawl.
type InputStep struct {
	messages []model.Message
}

// NewInputStep creates an input step.
func NewInputStep(messages []model.Message) *InputStep {
	return &InputStep{messages: messages}
}

// Name returns the step name.
func (s *InputStep) Name() string {
	return "input"
}

// Do executes the input step.
func (s *InputStep) Do(_ context.Context, report *model.HarvestReport) error {
	if len(s.messages) == 0 {
		return crawler.ErrNoMessages
	}
	report.Messages = s.messages
	return nil
}

// ExtractStep finds, validates and deduplicates share-links.
type ExtractStep struct{}

// NewExtractStep creates an extract step.
func NewExtractStep() *ExtractStep {
	return &ExtractStep{}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step.
func (s *ExtractStep) Do(_ context.Context, report *model.HarvestReport) error {
	links, err := sharelink.Collect(model.Texts(report.Messages))
	if err != nil {
		return err
	}
	report.Links = links
	return nil
}

// NameStep gives every link its positional display name.
type NameStep struct{}

// NewNameStep creates a name step.
func NewNameStep() *NameStep {
	return &NameStep{}
}

// Name returns the step name.
func (s *NameStep) Name() string {
	return "name"
}

// Do executes the name step.
func (s *NameStep) Do(_ context.Context, report *model.HarvestReport) error {
	report.Links = sharelink.Name(report.Links)
	return nil
}

// LinesStep collects every share-link line, without structural
// validation, for the line annotation variant. Lines are trimmed and
// exact duplicates dropped.
type LinesStep struct{}

// NewLinesStep creates a lines step.
func NewLinesStep() *LinesStep {
	return &LinesStep{}
}

// Name returns the step name.
func (s *LinesStep) Name() string {
	return "lines"
}

// Do executes the lines step.
func (s *LinesStep) Do(_ context.Context, report *model.HarvestReport) error {
	report.Lines = ShareLines(model.Texts(report.Messages))
	if len(report.Lines) == 0 {
		return sharelink.ErrNoValidLinks
	}
	return nil
}

// ShareLines returns the trimmed, deduplicated lines of texts that pass
// the share-link prefix test.
func ShareLines(texts []string) []string {
	var (
		lines []string
		seen  = make(map[string]struct{})
	)
	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if !sharelink.IsShareLine(line) {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
	}
	return lines
}

// AnnotateStep tags links (or lines, in the line variant) with flags.
// Geolocation failures never fail the step.
type AnnotateStep struct {
	// annotator adds the tags.
	annotator *annotate.Annotator

	// cache is the lookup cache behind annotator, read for statistics.
	cache *geo.Cache
}

// NewAnnotateStep creates an annotate step.
func NewAnnotateStep(a *annotate.Annotator, cache *geo.Cache) *AnnotateStep {
	return &AnnotateStep{annotator: a, cache: cache}
}

// Name returns the step name.
func (s *AnnotateStep) Name() string {
	return "annotate"
}

// Do executes the annotate step.
func (s *AnnotateStep) Do(ctx context.Context, report *model.HarvestReport) error {
	switch {
	case len(report.Links) > 0:
		report.Links, report.Annotated = s.annotator.Links(ctx, report.Links)
	case len(report.Lines) > 0:
		report.Lines, report.Annotated = s.annotator.Lines(ctx, report.Lines)
	}

	if s.cache != nil {
		stats := s.cache.Stats()
		report.GeoQueries = stats.Queries
		report.GeoFailures = stats.Failures
	}
	return nil
}

// BuildStep builds and verifies every output artifact.
type BuildStep struct {
	// split builds one artifact per protocol bucket.
	split bool

	// includeSS adds the ss bucket to split and combined output.
	includeSS bool

	// combined builds the section-headed artifact.
	combined bool
}

// BuildStepOption configures a BuildStep.
type BuildStepOption func(*BuildStep)

// WithSplit enables per-protocol artifacts.
func WithSplit(split bool) BuildStepOption {
	return func(s *BuildStep) {
		s.split = split
	}
}

// WithSS adds the ss bucket (which also takes ssr links).
func WithSS(includeSS bool) BuildStepOption {
	return func(s *BuildStep) {
		s.includeSS = includeSS
	}
}

// WithCombined enables the section-headed artifact.
func WithCombined(combined bool) BuildStepOption {
	return func(s *BuildStep) {
		s.combined = combined
	}
}

// NewBuildStep creates a build step.
func NewBuildStep(opts ...BuildStepOption) *BuildStep {
	s := &BuildStep{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *BuildStep) Name() string {
	return "build"
}

// Do executes the build step. Any failed round-trip check is fatal.
func (s *BuildStep) Do(_ context.Context, report *model.HarvestReport) error {
	var (
		main *model.Artifact
		err  error
	)

	switch {
	case len(report.Links) > 0:
		main, err = output.BuildLinks(output.NameAll, report.Links)
	case len(report.Lines) > 0:
		main, err = output.Build(output.NameLines, report.Lines)
	default:
		return ErrNothingToBuild
	}
	if err != nil {
		return err
	}
	report.Artifact = main
	report.Digest = output.Digest(main)

	if len(report.Links) == 0 {
		return nil
	}

	if s.split {
		parts, err := output.Partition(report.Links, s.includeSS)
		if err != nil {
			return err
		}
		report.Partitions = parts
	}

	if s.combined {
		combined, err := output.Combine(report.Links, s.includeSS)
		if err != nil && !errors.Is(err, output.ErrEmpty) {
			return err
		}
		report.Combined = combined
	}

	return nil
}

// HistoryStep records the run and looks up the previous digest.
// Storage problems are logged and never fail the run.
type HistoryStep struct {
	// store is the history database.
	store *database.Store

	// logger for structured logging.
	logger *slog.Logger
}

// NewHistoryStep creates a history step.
func NewHistoryStep(store *database.Store, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, report *model.HarvestReport) error {
	previous, err := s.store.LatestDigest(ctx, report.Channel)
	if err != nil {
		s.logger.Warn("failed to read run history", "error", err)
	}
	report.PreviousDigest = previous

	if _, err := s.store.SaveHarvestRun(ctx, report); err != nil {
		s.logger.Warn("failed to record run", "error", err)
	}
	return nil
}
