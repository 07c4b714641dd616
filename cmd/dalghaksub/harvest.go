package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skybow044/dalghaksub/internal/annotate"
	"github.com/skybow044/dalghaksub/internal/config"
	"github.com/skybow044/dalghaksub/internal/crawler"
	"github.com/skybow044/dalghaksub/internal/database"
	"github.com/skybow044/dalghaksub/internal/geo"
	"github.com/skybow044/dalghaksub/internal/model"
	"github.com/skybow044/dalghaksub/internal/output"
	"github.com/skybow044/dalghaksub/internal/pipeline"
	"github.com/skybow044/dalghaksub/internal/report"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Collect share-links from the channel into subscription files",
		Long: `Harvest walks the channel preview pages from newest to oldest until it has
collected --count messages, extracts every vmess, vless, trojan, ss and ssr
link, drops malformed links and duplicates, names the links with a positional
suffix and writes them as a plain and a base64 subscription file.

Every file is built and verified (base64 decodes back to the plain file)
before anything is written.

Examples:
  # Harvest the default channel into sub.txt and sub_base64.txt
  dalghaksub harvest

  # Harvest 300 messages of another channel
  dalghaksub harvest --channel some_channel -n 300

  # Tag every link with a country flag and write per-protocol files
  dalghaksub harvest --annotate --split-dir subs

  # Go through a local SOCKS5 proxy and print a JSON summary
  dalghaksub harvest --proxy 127.0.0.1:1080 --json`,
		Args: cobra.NoArgs,
		RunE: runHarvestCmd,
	}

	addCountFlag(cmd)

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutput,
		"Plain subscription file")
	cmd.Flags().StringP("encoded-output", "e", config.DefaultEncodedOutput,
		"Base64 subscription file")
	cmd.Flags().String("split-dir", "",
		"Directory receiving <protocol>.txt and <protocol>_base64.txt")
	cmd.Flags().String("combined-output", "",
		"File receiving every link under a per-protocol heading")
	cmd.Flags().Bool("include-ss", false,
		"Include ss and ssr links in split and combined output")
	cmd.Flags().String("messages-output", "",
		"File receiving the collected messages")

	// Annotation flags
	cmd.Flags().BoolP("annotate", "a", false,
		"Tag every link with a country flag and the attribution")
	addGeoFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// addCountFlag registers --count.
func addCountFlag(cmd *cobra.Command) {
	cmd.Flags().IntP("count", "n", config.DefaultCount,
		"Number of messages to collect")
}

// addGeoFlags registers the annotation and geolocation flags.
func addGeoFlags(cmd *cobra.Command) {
	cmd.Flags().String("attribution", "",
		"Text appended after the flag (default: @<channel>)")
	cmd.Flags().String("unknown-flag", "",
		"Flag used when a country cannot be resolved (default: none)")
	cmd.Flags().String("geo-backend", config.DefaultGeoBackend,
		"Geolocation backend: none, http or database")
	cmd.Flags().String("geo-db", "",
		"Geo database path (default: $XDG_CACHE_HOME/dalghaksub/geoip-country.db)")
	cmd.Flags().String("geo-db-url", config.DefaultGeoDBURL,
		"CSV of IPv4 country ranges imported when the geo database is missing")
	cmd.Flags().String("geo-api-url", config.DefaultGeoAPIURL,
		"Lookup URL of the http backend; {ip} is replaced with the address")
	cmd.Flags().Int("geo-rate-limit", config.DefaultGeoRateLimit,
		"Lookups per minute of the http backend (0 disables the limit)")
}

// addReportFlags registers the summary flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Print the run summary as JSON (mutually exclusive with --summary)")
	cmd.Flags().StringP("summary", "s", "",
		"Write a Markdown run summary to the given file")
}

// runHarvestCmd executes the harvest command.
func runHarvestCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	return runWithTransport(cmd, cfg, func(ctx context.Context, h *harvester, baseURL string) error {
		_, err := h.harvest(ctx, baseURL, harvestInput{})
		return err
	})
}

// runWithTransport sets up logging, signal handling and the transport,
// then calls fn with a harvester for the configured channel.
func runWithTransport(cmd *cobra.Command, cfg *config.Config, fn func(context.Context, *harvester, string) error) error {
	logger := setupLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	baseURL, err := channelURL(cfg)
	if err != nil {
		return err
	}

	t, err := openTransport(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			logger.Warn("failed to close transport", "error", err)
		}
	}()
	logger.Debug("transport ready", "mode", t.Mode())

	h := &harvester{
		cfg:    cfg,
		logger: logger,
		client: t.HTTPClient(),
		out:    cmd.OutOrStdout(),
	}
	return fn(ctx, h, baseURL)
}

// harvester runs one harvest with fixed configuration and dependencies.
type harvester struct {
	cfg    *config.Config
	logger *slog.Logger

	// client is used for page fetches and geolocation downloads.
	client *http.Client

	// out receives the run summary.
	out io.Writer
}

// harvestInput selects the harvest variant.
type harvestInput struct {
	// messages replaces the crawl when non-nil.
	messages []model.Message

	// lineMode selects the line annotation variant, which always annotates.
	lineMode bool
}

// harvest runs the pipeline against baseURL, writes every output file and
// prints the summary. Nothing is written when any step fails.
func (h *harvester) harvest(ctx context.Context, baseURL string, in harvestInput) (*model.HarvestReport, error) {
	cfg := h.cfg

	c := crawler.New(newFetcher(h.client, cfg), baseURL,
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithLogger(h.logger),
	)

	opts := []pipeline.HarvestOption{
		pipeline.WithCount(cfg.Count),
		pipeline.WithLineMode(in.lineMode),
		pipeline.WithPartitions(cfg.SplitDir != "", cfg.CombinedOutput != "", cfg.IncludeSS),
	}
	if in.messages != nil {
		opts = append(opts, pipeline.WithInput(in.messages))
	}

	history := openHistory(cfg, h.logger)
	defer closeStore(history, h.logger)
	if history != nil {
		opts = append(opts, pipeline.WithHistory(history))
	}

	if cfg.Annotate || in.lineMode {
		annotator, cache, release := h.newAnnotator(ctx)
		defer release()
		opts = append(opts, pipeline.WithAnnotator(annotator, cache))
	}

	p := pipeline.HarvestPipeline(c, []pipeline.Option{pipeline.WithLogger(h.logger)}, opts...)
	h.logger.Debug("harvest pipeline", "steps", p.StepNames())

	hr := model.NewHarvestReport(cfg.ChannelName(), cfg.Count)
	hr.SourceURL = baseURL
	if err := p.Execute(ctx, hr); err != nil {
		return hr, err
	}

	plan := h.plan(hr)
	if err := plan.Write(); err != nil {
		return hr, err
	}
	h.logger.Info("outputs written", "files", plan.Paths())

	if err := h.summarize(hr); err != nil {
		return hr, err
	}
	return hr, nil
}

// plan lists every file of a finished run.
func (h *harvester) plan(hr *model.HarvestReport) *output.Plan {
	cfg := h.cfg
	plan := &output.Plan{}

	plan.AddArtifact(hr.Artifact, cfg.Output, cfg.EncodedOutput)
	if cfg.SplitDir != "" {
		plan.AddPartitions(cfg.SplitDir, hr.Partitions)
	}
	if cfg.CombinedOutput != "" && hr.Combined != nil {
		plan.AddArtifact(hr.Combined, cfg.CombinedOutput, "")
	}
	if cfg.MessagesOutput != "" {
		plan.Add(cfg.MessagesOutput, output.MessageDump(hr.Messages))
	}
	return plan
}

// summarize prints the run summary to out and, when configured, writes
// the Markdown summary file.
func (h *harvester) summarize(hr *model.HarvestReport) error {
	var primary report.Writer
	if h.cfg.JSONReport {
		primary = report.NewJSONWriter(h.out, report.WithPrettyPrint())
	} else {
		primary = report.NewSimpleWriter(h.out, report.WithVerbose(h.cfg.Verbose))
	}
	writers := []report.Writer{primary}

	if h.cfg.MarkdownReport != "" {
		if dir := filepath.Dir(h.cfg.MarkdownReport); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create summary directory: %w", err)
			}
		}
		f, err := os.OpenFile(h.cfg.MarkdownReport, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create summary file: %w", err)
		}
		defer f.Close()
		writers = append(writers, report.NewMarkdownWriter(f))
	}

	if _, err := report.NewMultiWriter(writers...).Write(hr); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// unresolved answers no lookup; links then carry the attribution only.
type unresolved struct{}

// Lookup implements annotate.Lookuper.
func (unresolved) Lookup(context.Context, string) (string, bool) {
	return "", false
}

// newAnnotator builds the annotator for the configured geolocation backend.
// A backend that cannot be prepared degrades to attribution-only tags.
// release frees the backend's resources.
func (h *harvester) newAnnotator(ctx context.Context) (*annotate.Annotator, *geo.Cache, func()) {
	cfg := h.cfg
	opts := []annotate.Option{
		annotate.WithUnknownFlag(cfg.UnknownFlag),
		annotate.WithLogger(h.logger),
	}
	release := func() {}

	var resolver geo.Resolver
	switch cfg.GeoBackend {
	case config.GeoBackendHTTP:
		var httpResolver geo.Resolver = geo.NewHTTPResolver(h.client, cfg.GeoAPIURL,
			geo.WithRateLimit(cfg.GeoRateLimit))
		resolver = httpResolver

		// Answers are kept in the geo database file so later runs skip the API.
		if cfg.GeoDBPath != "" {
			store, err := database.Open(cfg.GeoDBPath, database.DefaultOptions())
			if err != nil {
				h.logger.Warn("geo lookups will not be persisted", "path", cfg.GeoDBPath, "error", err)
			} else {
				resolver = geo.NewPersistentResolver(httpResolver, store, config.GeoBackendHTTP)
				release = func() { closeStore(store, h.logger) }
			}
		}

	case config.GeoBackendDatabase:
		store, err := database.EnsureGeoDB(ctx, h.client, cfg.GeoDBPath, cfg.GeoDBURL, h.logger)
		if err != nil {
			h.logger.Warn("geo database unavailable, links get no flag", "path", cfg.GeoDBPath, "error", err)
		} else {
			resolver = geo.NewDBResolver(store)
			release = func() { closeStore(store, h.logger) }
		}
	}

	if resolver == nil {
		return annotate.New(unresolved{}, cfg.EffectiveAttribution(), opts...), nil, release
	}

	cache := geo.NewCache(resolver, geo.WithCacheLogger(h.logger))
	return annotate.New(cache, cfg.EffectiveAttribution(), opts...), cache, release
}
