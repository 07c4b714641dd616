package sharelink

import "errors"

// ErrNoValidLinks is returned when no message contained a structurally
// valid share-link.
var ErrNoValidLinks = errors.New("no valid share-links found in the collected messages")
