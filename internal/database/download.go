package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// EnsureGeoDB opens the geo database at path, downloading and importing
// the range CSV from sourceURL when the file is missing or holds no ranges.
// The returned Store has at least one range.
func EnsureGeoDB(ctx context.Context, client *http.Client, path, sourceURL string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := Open(path, Options{CreateIfNotExists: false, EnableWAL: true})
	switch {
	case err == nil:
		count, err := store.RangeCount(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if count > 0 {
			logger.Debug("using existing geo database", "path", path, "ranges", count)
			return store, nil
		}
	case errors.Is(err, ErrNotFound):
		store, err = Open(path, DefaultOptions())
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if sourceURL == "" {
		_ = store.Close()
		return nil, fmt.Errorf("geo database %s is empty and no source URL is configured", path)
	}

	logger.Info("downloading geo database", "url", sourceURL, "path", path)
	imported, err := downloadRanges(ctx, client, store, sourceURL)
	if err != nil {
		_ = store.Close()
		_ = os.Remove(path)
		return nil, err
	}
	logger.Info("geo database ready", "path", path, "ranges", imported)

	return store, nil
}

// downloadRanges fetches the range CSV and imports it into store.
func downloadRanges(ctx context.Context, client *http.Client, store *Store, sourceURL string) (int, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create geo database request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download geo database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort
		return 0, fmt.Errorf("failed to download geo database: status=%d", resp.StatusCode)
	}

	imported, err := store.ImportRanges(ctx, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to import geo database: %w", err)
	}
	return imported, nil
}
