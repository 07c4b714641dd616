package geo

import (
	"errors"
	"fmt"
)

// ErrNoCountry is wrapped by a LookupError when the backend answered but
// had no country for the address.
var ErrNoCountry = errors.New("no country for address")

// LookupError reports a failed geolocation lookup.
type LookupError struct {
	// IP is the address that was looked up.
	IP string

	// Backend names the resolver that failed.
	Backend string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup of %s failed: %v", e.Backend, e.IP, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LookupError) Unwrap() error {
	return e.Err
}
