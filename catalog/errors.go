package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for spec loading.
var (
	ErrNotFound      = errors.New("catalog: spec not found")
	ErrUnknownFormat = errors.New("catalog: unknown spec format")
)

// Kind classifies why a spec could not be loaded.
type Kind string

const (
	KindUnknownAPI Kind = "unknown_api"
	KindMissing    Kind = "missing"
	KindMalformed  Kind = "malformed"
)

// LoadError describes a failed load. It always matches ErrNotFound.
type LoadError struct {
	APIID string
	Path  string
	Kind  Kind
	Cause error
}

// Error returns the error message.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog: load %q (%s): %v", e.APIID, e.Kind, e.Cause)
	}
	return fmt.Sprintf("catalog: load %q (%s)", e.APIID, e.Kind)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *LoadError) Is(target error) bool {
	return target == ErrNotFound
}

// KindOf returns the load failure kind, or "" if err is not a *LoadError.
func KindOf(err error) Kind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
