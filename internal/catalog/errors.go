package catalog

import (
	"errors"
	"fmt"
)

var ErrIdentityNotFound = errors.New("identity not found")

// TransportError is any catalog failure other than an unknown identity. StatusCode is 0 when
// no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("catalog request failed: %s", e.Err)
	}
	return fmt.Sprintf("catalog request failed with status %d: %s", e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
