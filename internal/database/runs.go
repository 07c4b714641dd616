package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skybow044/dalghaksub/internal/model"
)

// HarvestRun is the stored summary of one harvest.
type HarvestRun struct {
	// ID is the row identifier.
	ID int64

	// Channel is the channel the run harvested.
	Channel string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// Messages is the number of collected messages.
	Messages int

	// Links is the number of validated links.
	Links int

	// Pages is the number of pages fetched.
	Pages int

	// StopReason is why pagination ended.
	StopReason string

	// Protocols holds the link count per protocol.
	Protocols map[string]int

	// Digest is the hex SHA3-256 of the plain artifact.
	Digest string
}

// SaveHarvestRun stores the summary of a finished harvest.
func (s *Store) SaveHarvestRun(ctx context.Context, report *model.HarvestReport) (int64, error) {
	protocols := make(map[string]int)
	for p, n := range report.ProtocolCounts() {
		protocols[p.String()] = n
	}
	protocolsJSON, _ := json.Marshal(protocols) //nolint:errcheck,errchkjson // simple map; Marshal won't fail

	query := `
	INSERT INTO harvest_runs (channel, messages, links, pages, stop_reason, protocols, digest)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		report.Channel,
		len(report.Messages),
		len(report.Links),
		report.PagesFetched,
		string(report.StopReason),
		string(protocolsJSON),
		report.Digest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save harvest run: %w", err)
	}
	return result.LastInsertId()
}

// ListHarvestRuns returns stored runs, newest first.
// An empty channel lists every channel; limit <= 0 means no limit.
func (s *Store) ListHarvestRuns(ctx context.Context, channel string, limit int) ([]HarvestRun, error) {
	query := `
	SELECT id, channel, timestamp, messages, links, pages, stop_reason, protocols, digest
	FROM harvest_runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if channel != "" {
		query += " AND channel = ?"
		args = append(args, channel)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list harvest runs: %w", err)
	}
	defer rows.Close()

	var runs []HarvestRun
	for rows.Next() {
		var (
			run           HarvestRun
			timestamp     string
			stopReason    sql.NullString
			protocolsJSON sql.NullString
			digest        sql.NullString
		)

		if err := rows.Scan(
			&run.ID,
			&run.Channel,
			&timestamp,
			&run.Messages,
			&run.Links,
			&run.Pages,
			&stopReason,
			&protocolsJSON,
			&digest,
		); err != nil {
			return nil, fmt.Errorf("failed to scan harvest run: %w", err)
		}

		run.Timestamp = parseTimestamp(timestamp)
		run.StopReason = stopReason.String
		run.Digest = digest.String
		run.Protocols = make(map[string]int)
		if protocolsJSON.Valid && protocolsJSON.String != "" {
			if err := json.Unmarshal([]byte(protocolsJSON.String), &run.Protocols); err != nil {
				run.Protocols = make(map[string]int)
			}
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// LatestDigest returns the digest stored by the most recent run for channel.
// It returns an empty string when the channel has no history.
func (s *Store) LatestDigest(ctx context.Context, channel string) (string, error) {
	query := `
	SELECT digest FROM harvest_runs
	WHERE channel = ?
	ORDER BY id DESC
	LIMIT 1
	`

	var digest sql.NullString
	err := s.db.QueryRowContext(ctx, query, channel).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read latest digest: %w", err)
	}
	return digest.String, nil
}
