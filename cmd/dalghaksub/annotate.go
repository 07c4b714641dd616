package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skybow044/dalghaksub/internal/config"
	"github.com/skybow044/dalghaksub/internal/model"
)

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Tag share-link lines with country flags",
		Long: `Annotate collects every line that starts with a share-link scheme, keeps it
as found (no structural validation and no renaming), and appends a country flag
and the attribution to lines whose IPv4 address can be resolved. Lines that
already carry the tag are left alone, so annotating twice changes nothing.

Lines come from the channel, or from a local file with --input ("-" reads
standard input). The result is written to --output, and in base64 to
--encoded-output when given.

Examples:
  # Annotate the newest 100 messages of the default channel into normal.txt
  dalghaksub annotate

  # Annotate an existing list using the ip-api.com backend
  dalghaksub annotate --input links.txt --geo-backend http -o tagged.txt`,
		Args: cobra.NoArgs,
		RunE: runAnnotateCmd,
	}

	addCountFlag(cmd)
	cmd.Flags().StringP("input", "i", "",
		`Read lines from a file instead of the channel ("-" for standard input)`)
	cmd.Flags().StringP("output", "o", config.DefaultLinesOutput,
		"Annotated plain file")
	cmd.Flags().StringP("encoded-output", "e", "",
		"Annotated base64 file (default: none)")
	addGeoFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runAnnotateCmd executes the annotate command.
func runAnnotateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	// The annotate outputs come from its own flags only, so a configured
	// subscription path is never overwritten with annotated lines.
	if cfg.Output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.EncodedOutput, err = cmd.Flags().GetString("encoded-output"); err != nil {
		return err
	}
	if cfg.Output == "" {
		return fmt.Errorf("configuration error: %w", config.ErrNoOutput)
	}
	cfg.Annotate = true
	cfg.NoHistory = true
	cfg.SplitDir = ""
	cfg.CombinedOutput = ""

	in := harvestInput{lineMode: true}
	inputPath, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}
	if inputPath != "" {
		in.messages, err = readInput(inputPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	return runWithTransport(cmd, cfg, func(ctx context.Context, h *harvester, baseURL string) error {
		_, err := h.harvest(ctx, baseURL, in)
		return err
	})
}

// readInput reads a local line source as a single message. "-" reads r.
func readInput(path string, r io.Reader) ([]model.Message, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // User-provided input path is intentional
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if text == "" {
		return []model.Message{}, nil
	}
	return []model.Message{{Text: text}}, nil
}
