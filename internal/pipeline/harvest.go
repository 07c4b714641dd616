package pipeline

import (
	"github.com/skybow044/dalghaksub/internal/annotate"
	"github.com/skybow044/dalghaksub/internal/crawler"
	"github.com/skybow044/dalghaksub/internal/database"
	"github.com/skybow044/dalghaksub/internal/geo"
	"github.com/skybow044/dalghaksub/internal/model"
)

// HarvestConfig holds configuration for a harvest pipeline.
type HarvestConfig struct {
	// Count is the number of messages to collect.
	Count int

	// Input replaces the crawl with fixed messages when non-nil.
	Input []model.Message

	// LineMode switches to the line annotation variant: share-link lines
	// are kept as found, without structural validation or renaming.
	LineMode bool

	// Annotator tags links with flags; nil disables annotation.
	Annotator *annotate.Annotator

	// GeoCache is the cache behind Annotator, read for statistics.
	GeoCache *geo.Cache

	// Split builds per-protocol artifacts.
	Split bool

	// IncludeSS adds the ss bucket to split and combined output.
	IncludeSS bool

	// Combined builds the section-headed artifact.
	Combined bool

	// History records the run; nil disables history.
	History *database.Store
}

// HarvestOption configures a HarvestConfig.
type HarvestOption func(*HarvestConfig)

// WithCount sets the number of messages to collect.
func WithCount(count int) HarvestOption {
	return func(c *HarvestConfig) {
		c.Count = count
	}
}

// WithInput uses messages instead of crawling the channel.
func WithInput(messages []model.Message) HarvestOption {
	return func(c *HarvestConfig) {
		c.Input = messages
	}
}

// WithLineMode selects the line annotation variant.
func WithLineMode(lineMode bool) HarvestOption {
	return func(c *HarvestConfig) {
		c.LineMode = lineMode
	}
}

// WithAnnotator enables flag annotation.
func WithAnnotator(a *annotate.Annotator, cache *geo.Cache) HarvestOption {
	return func(c *HarvestConfig) {
		c.Annotator = a
		c.GeoCache = cache
	}
}

// WithPartitions configures split and combined output.
func WithPartitions(split, combined, includeSS bool) HarvestOption {
	return func(c *HarvestConfig) {
		c.Split = split
		c.Combined = combined
		c.IncludeSS = includeSS
	}
}

// WithHistory enables run history.
func WithHistory(store *database.Store) HarvestOption {
	return func(c *HarvestConfig) {
		c.History = store
	}
}

// HarvestPipeline creates a pipeline with the harvest steps in order:
// crawl, extract (or lines), name, annotate, build, history.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts harvest config options (WithCount, etc).
func HarvestPipeline(c *crawler.Crawler, pipelineOpts []Option, configOpts ...HarvestOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &HarvestConfig{
		Count: 100,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	if cfg.Input != nil {
		p.AddStep(NewInputStep(cfg.Input))
	} else {
		p.AddStep(NewCrawlStep(c, cfg.Count))
	}

	if cfg.LineMode {
		p.AddStep(NewLinesStep())
	} else {
		p.AddSteps(NewExtractStep(), NewNameStep())
	}

	if cfg.Annotator != nil {
		p.AddStep(NewAnnotateStep(cfg.Annotator, cfg.GeoCache))
	}

	p.AddStep(NewBuildStep(
		WithSplit(cfg.Split),
		WithCombined(cfg.Combined),
		WithSS(cfg.IncludeSS),
	))

	if cfg.History != nil {
		p.AddStep(NewHistoryStep(cfg.History, p.logger))
	}

	return p
}
