package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skybow044/dalghaksub/internal/config"
	"github.com/skybow044/dalghaksub/internal/crawler"
	"github.com/skybow044/dalghaksub/internal/database"
	"github.com/skybow044/dalghaksub/internal/log"
	"github.com/skybow044/dalghaksub/internal/transport"
)

// buildConfig resolves the configuration of cmd: defaults, then the
// configuration file, then the environment, then explicitly set flags.
func buildConfig(cmd *cobra.Command, lookup config.LookupFunc) (*config.Config, error) {
	base := config.NewConfig()

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(configFlag)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.Apply(base); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		base.ConfigFilePath = configPath
	case configFlag != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configFlag)
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(base, changedFlags(cmd), lookup)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// changedFlags returns the flags the user set explicitly, keyed by name.
func changedFlags(cmd *cobra.Command) map[string]string {
	changed := make(map[string]string)
	for _, key := range config.Keys() {
		flag := cmd.Flags().Lookup(key)
		if flag == nil || !flag.Changed {
			continue
		}
		changed[key] = flag.Value.String()
	}
	return changed
}

// setupLogger creates the redacting logger selected by cfg.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openTransport opens the network transport selected by cfg.
func openTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*transport.Transport, error) {
	t, err := transport.Open(ctx, transport.Settings{
		Proxy:             cfg.Proxy,
		UseTor:            cfg.UseTor,
		TorStartupTimeout: cfg.TorStartupTimeout,
		Timeout:           cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open transport: %w", err)
	}
	return t, nil
}

// newFetcher creates the page fetcher configured by cfg.
func newFetcher(client *http.Client, cfg *config.Config) *crawler.HTTPFetcher {
	opts := []crawler.FetcherOption{}
	if cfg.UserAgent != "" {
		opts = append(opts, crawler.WithUserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, crawler.WithMaxBodySize(cfg.MaxBodySize))
	}
	return crawler.NewHTTPFetcher(client, opts...)
}

// openHistory opens the run history database, or returns nil when history
// is disabled or unavailable. History problems never stop a run.
func openHistory(cfg *config.Config, logger *slog.Logger) *database.Store {
	if cfg.NoHistory || cfg.HistoryDB == "" {
		return nil
	}
	store, err := database.Open(cfg.HistoryDB, database.DefaultOptions())
	if err != nil {
		logger.Warn("run history disabled", "path", cfg.HistoryDB, "error", err)
		return nil
	}
	return store
}

// closeStore closes store, logging failures.
func closeStore(store *database.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("failed to close database", "path", store.Path(), "error", err)
	}
}

// channelURL returns the first page URL of the configured channel.
func channelURL(cfg *config.Config) (string, error) {
	u, err := crawler.ChannelURL(cfg.Channel)
	if err != nil {
		return "", fmt.Errorf("cannot build URL for channel %q: %w", cfg.Channel, err)
	}
	return u, nil
}
