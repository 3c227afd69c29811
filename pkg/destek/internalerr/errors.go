// Package internalerr holds the error taxonomy shared by the engine, the
// stores and the HTTP layer. "Nothing matched" is not an error and has no
// sentinel here.
package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("association store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Invalid returns a validation failure wrapping ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Store wraps a data-access failure so callers can match it with
// errors.Is(err, ErrStoreUnavailable) while keeping the driver error.
// Errors that already carry a sentinel are returned unchanged.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
