package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveLookup stores a resolved country code for ip, replacing any
// previous value. source names the backend that produced it.
func (s *Store) SaveLookup(ctx context.Context, ip, country, source string) error {
	query := `
	INSERT INTO geo_lookups (ip, country, source)
	VALUES (?, ?, ?)
	ON CONFLICT(ip) DO UPDATE SET
		country = excluded.country,
		source = excluded.source,
		timestamp = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, ip, country, source); err != nil {
		return fmt.Errorf("failed to save lookup for %s: %w", ip, err)
	}
	return nil
}

// CachedLookup returns the stored country code for ip.
// found is false when the address was never resolved.
func (s *Store) CachedLookup(ctx context.Context, ip string) (country string, found bool, err error) {
	err = s.db.QueryRowContext(ctx, "SELECT country FROM geo_lookups WHERE ip = ?", ip).Scan(&country)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read lookup for %s: %w", ip, err)
	}
	return country, true, nil
}
