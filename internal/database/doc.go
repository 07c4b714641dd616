// Package database provides SQLite-based storage for dalghaksub.
//
// A Store holds up to three kinds of data:
//   - ip_ranges: an IPv4 range to country table, imported from CSV
//   - geo_lookups: country codes resolved by a remote service
//   - harvest_runs: one row per harvest, used by the history command
//
// The geo database and the history database are normally separate files,
// both opened through Open. SQLite (modernc.org/sqlite) keeps the binary
// CGO-free and each database a single file.
package database
