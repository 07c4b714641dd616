package database

import (
	"bufio"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"
)

// ErrNoRanges is returned when an import produced no usable rows.
var ErrNoRanges = errors.New("no IPv4 ranges imported")

// ImportRanges replaces the ip_ranges table with the rows read from r.
//
// Each CSV row is "start,end,country". Addresses may be dotted IPv4 or
// unsigned integers. IPv6 rows, header rows and rows with an invalid
// country are skipped. Gzip input is detected and decompressed.
// The whole import runs in one transaction.
func (s *Store) ImportRanges(ctx context.Context, r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return 0, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	} else {
		r = br
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM ip_ranges"); err != nil {
		return 0, fmt.Errorf("failed to clear ip ranges: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO ip_ranges (start_ip, end_ip, country) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	imported := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read ranges csv: %w", err)
		}
		if len(record) < 3 {
			continue
		}

		start, ok1 := parseIPv4Value(record[0])
		end, ok2 := parseIPv4Value(record[1])
		country := strings.ToUpper(strings.TrimSpace(record[2]))
		if !ok1 || !ok2 || start > end || !isCountryCode(country) {
			continue
		}

		if _, err := stmt.ExecContext(ctx, int64(start), int64(end), country); err != nil {
			return 0, fmt.Errorf("failed to insert range: %w", err)
		}
		imported++
	}

	if imported == 0 {
		return 0, ErrNoRanges
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ranges: %w", err)
	}
	return imported, nil
}

// RangeCount returns the number of stored IPv4 ranges.
func (s *Store) RangeCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ip_ranges").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ranges: %w", err)
	}
	return count, nil
}

// CountryForIP returns the country of the range containing ip.
// found is false when no range covers the address.
func (s *Store) CountryForIP(ctx context.Context, ip string) (country string, found bool, err error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return "", false, fmt.Errorf("not an IPv4 address: %q", ip)
	}
	value := int64(ipv4ToUint32(addr))

	query := `
	SELECT country FROM ip_ranges
	WHERE start_ip <= ? AND end_ip >= ?
	ORDER BY start_ip DESC
	LIMIT 1
	`

	err = s.db.QueryRowContext(ctx, query, value, value).Scan(&country)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up %s: %w", ip, err)
	}
	return country, true, nil
}

// parseIPv4Value accepts a dotted IPv4 address or its unsigned integer form.
func parseIPv4Value(field string) (uint32, bool) {
	field = strings.TrimSpace(field)
	if n, err := strconv.ParseUint(field, 10, 32); err == nil {
		return uint32(n), true
	}
	addr, err := netip.ParseAddr(field)
	if err != nil || !addr.Is4() {
		return 0, false
	}
	return ipv4ToUint32(addr), true
}

func ipv4ToUint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// isCountryCode reports whether s is two upper-case ASCII letters.
func isCountryCode(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}
