package output

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when an artifact would contain no lines.
var ErrEmpty = errors.New("refusing to build an empty artifact")

// IntegrityError reports an artifact whose encoded form does not decode
// to its plain form.
type IntegrityError struct {
	// Name is the artifact name.
	Name string

	// Err is the decoding error, nil when decoding worked but the bytes differ.
	Err error
}

// Error implements error.
func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("artifact %q failed the round-trip check: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("artifact %q failed the round-trip check: decoded bytes differ", e.Name)
}

// Unwrap returns the decoding error.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}
