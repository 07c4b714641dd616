package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Sentinels allow callers to use errors.Is.
var (
	// ErrInvalidChannel is returned when the channel is neither a public
	// username, a t.me link nor an http(s) URL.
	ErrInvalidChannel = errors.New("invalid channel: use a public username, t.me link or http(s) URL")

	// ErrInvalidCount is returned when the message count is not positive.
	ErrInvalidCount = errors.New("invalid count: must be positive")

	// ErrNoOutput is returned when either subscription path is empty.
	ErrNoOutput = errors.New("no output: both plain and base64 output paths are required")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidGeoBackend is returned for an unknown geolocation backend.
	ErrInvalidGeoBackend = errors.New("invalid geo backend: must be none, http or database")

	// ErrNoGeoDB is returned when the database backend has no path.
	ErrNoGeoDB = errors.New("no geo database path configured")

	// ErrInvalidRateLimit is returned when the geo rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid geo rate limit: must be non-negative")

	// ErrConflictingTransports is returned when both --proxy and --tor are set.
	ErrConflictingTransports = errors.New("conflicting transports: --proxy and --tor cannot be used together")

	// ErrConflictingReportFormats is returned when both --json and
	// --summary are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --summary cannot be used together")
)
