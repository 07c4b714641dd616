package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMessages is returned when a crawl finishes without a single
	// non-empty message.
	ErrNoMessages = errors.New("no non-empty messages extracted from channel pages")

	// ErrInvalidCount is returned when the requested message count is not positive.
	ErrInvalidCount = errors.New("invalid message count: must be positive")

	// ErrInvalidChannel is returned when the channel cannot be turned into a page URL.
	ErrInvalidChannel = errors.New("invalid channel: expected a channel name or an http(s) URL")
)

// TransportError reports a page fetch that failed, either at the network
// level (Err set) or with a non-success HTTP status (StatusCode set).
type TransportError struct {
	// URL is the page that was requested.
	URL string

	// StatusCode is the HTTP status, zero for network failures.
	StatusCode int

	// Err is the underlying network error, if any.
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: status=%d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
