// Package apperr defines the error taxonomy shared by the alert engine, the store and the handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a stale write rejected by optimistic concurrency.
	ErrConflict = errors.New("version mismatch")
	// ErrPersistence marks a failed write to the user-state store.
	ErrPersistence = errors.New("persistence failure")
)

// Validation returns an ErrValidation with a formatted detail message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming the missing resource.
func NotFound(resource, id string) error {
	return fmt.Errorf("%s %q %w", resource, id, ErrNotFound)
}

// Persistence wraps a store failure so it matches both ErrPersistence and the cause.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// ConflictError is returned when a conditional write finds a newer version than expected.
type ConflictError struct {
	UserID          string
	ExpectedVersion int64
	ActualVersion   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version mismatch for user %s: expected %d, found %d",
		e.UserID, e.ExpectedVersion, e.ActualVersion)
}

// Is makes errors.Is(err, ErrConflict) true for any ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UpstreamError describes a failed call to a live provider. Adapters log it and fall back;
// it never leaves the adapter boundary.
type UpstreamError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s %s returned status %d", e.Provider, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error from the taxonomy to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsPermanent reports whether retrying the same request cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
