package backup

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("snapshot not found")
	ErrValidation      = errors.New("snapshot validation failed")
	ErrConfigInvalid   = errors.New("invalid scheduler config")
	ErrInvalidIdentity = errors.New("invalid identity")
)

// ValidationError names the member that failed a snapshot check.
type ValidationError struct {
	Member string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Member, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
