package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skybow044/dalghaksub/internal/config"
	"github.com/skybow044/dalghaksub/internal/database"
	"github.com/skybow044/dalghaksub/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command lists past harvests stored in the run history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past harvests of the channel",
		Long: `History lists the harvests recorded in the run history database, newest
first: message and link counts, links per protocol and the SHA3-256 digest of
the plain subscription. A run whose output is identical to the run before it
is marked as unchanged.

Examples:
  # Last 20 harvests of the default channel
  dalghaksub history

  # Every recorded run of every channel, as Markdown
  dalghaksub history --all --limit 0 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Bool("all", false, "List runs of every channel")
	cmd.Flags().BoolP("markdown", "m", false, "Output the history as Markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	channel := cfg.ChannelName()
	if all {
		channel = ""
	}
	return listHistory(cmd.Context(), cmd.OutOrStdout(), cfg, channel, limit, asMarkdown)
}

// listHistory writes the stored runs of channel (every channel when empty).
// A missing database lists no runs.
func listHistory(ctx context.Context, w io.Writer, cfg *config.Config, channel string, limit int, asMarkdown bool) error {
	if cfg.NoHistory {
		return errors.New("run history is disabled (--no-history)")
	}

	label := channel
	if label == "" {
		label = "all channels"
	}

	write := report.WriteHistory
	if asMarkdown {
		write = report.WriteHistoryMarkdown
	}

	store, err := database.Open(cfg.HistoryDB, database.Options{CreateIfNotExists: false})
	if errors.Is(err, database.ErrNotFound) {
		return write(w, label, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	runs, err := store.ListHarvestRuns(ctx, channel, limit)
	if err != nil {
		return err
	}
	return write(w, label, runs)
}
