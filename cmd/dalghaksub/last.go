package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skybow044/dalghaksub/internal/config"
	"github.com/skybow044/dalghaksub/internal/crawler"
)

// exitFallback is the exit code of last when it answered from the
// fallback file.
const exitFallback = 2

// errEmptyFallback is returned when the fallback file has no usable line.
var errEmptyFallback = errors.New("fallback file has no non-blank line")

// lastMessage is the live answer of the last command.
type lastMessage struct {
	Channel     string `json:"channel"`
	MessageText string `json:"messageText"`
	MessageLink string `json:"messageLink"`
}

// fallbackLine is the answer of the last command when the channel is
// unreachable.
type fallbackLine struct {
	From            string `json:"from"`
	LatestKnownLine string `json:"latestKnownLine"`
}

// NewLastCmd creates the last command.
func NewLastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Print the newest message of the channel as JSON",
		Long: `Last fetches only the first preview page and prints its newest message as
{"channel", "messageText", "messageLink"}.

When the channel cannot be reached, the first non-blank line of the fallback
file is printed as {"from", "latestKnownLine"} and the command exits with
status 2. It exits with status 1 when the fallback file is unusable too.`,
		Args: cobra.NoArgs,
		RunE: runLastCmd,
	}

	cmd.Flags().StringP("fallback", "f", config.DefaultFallbackFile,
		"File read when the channel cannot be reached")

	return cmd
}

// runLastCmd executes the last command.
func runLastCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	fallback, err := cmd.Flags().GetString("fallback")
	if err != nil {
		return err
	}

	return runWithTransport(cmd, cfg, func(ctx context.Context, h *harvester, baseURL string) error {
		return h.last(ctx, baseURL, fallback)
	})
}

// last prints the newest message, or the fallback line when the live
// fetch fails.
func (h *harvester) last(ctx context.Context, baseURL, fallback string) error {
	msg, err := crawler.Latest(ctx, newFetcher(h.client, h.cfg), baseURL)
	if err == nil {
		return writeJSON(h.out, lastMessage{
			Channel:     h.cfg.ChannelName(),
			MessageText: msg.Text,
			MessageLink: msg.Link,
		})
	}
	h.logger.Warn("live fetch failed, using fallback file", "url", baseURL, "fallback", fallback, "error", err)

	line, ferr := firstLine(fallback)
	if ferr != nil {
		return fmt.Errorf("failed to fetch latest message: %w (fallback: %w)", err, ferr)
	}
	if err := writeJSON(h.out, fallbackLine{From: fallback, LatestKnownLine: line}); err != nil {
		return err
	}
	return &ExitError{Code: exitFallback}
}

// firstLine returns the first non-blank line of path, trimmed.
func firstLine(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided fallback path is intentional
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: %s", errEmptyFallback, path)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
