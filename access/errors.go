package access

import (
	"errors"
	"fmt"
)

// ErrFallback is matched by every *FallbackError.
var ErrFallback = errors.New("access: options fell back to read-only")

// FallbackError records why the safe read-only options were substituted.
type FallbackError struct {
	// APIID is the API being rendered.
	APIID string

	// Cause is the underlying failure (e.g., a token decode error).
	Cause error
}

// Error returns the error message.
func (e *FallbackError) Error() string {
	return fmt.Sprintf("access: fallback for %q: %v", e.APIID, e.Cause)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *FallbackError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *FallbackError) Is(target error) bool {
	return target == ErrFallback
}
