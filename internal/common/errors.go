// Package common defines shared constants and sentinel errors used across
// gophauth components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Store outcomes surfaced by registration.
	ErrorDuplicateEmail   = errors.New("email already registered")
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Login outcomes.
	ErrorInvalidEmail    = errors.New("invalid email")
	ErrorInvalidPassword = errors.New("invalid password")

	// ErrorOccurred wraps any unexpected failure; the wrapped message is
	// shown to the caller.
	ErrorOccurred = errors.New("error occurred")

	// Validation errors.
	ErrorEmailRequired    = errors.New("email is required")
	ErrorPasswordRequired = errors.New("password is required")
	ErrorInvalidAccount   = errors.New("invalid account record")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// OccurredError carries an unexpected failure. It matches ErrorOccurred and
// the underlying error with errors.Is.
type OccurredError struct {
	Err error
}

func Occurred(err error) error {
	return &OccurredError{Err: err}
}

func (e *OccurredError) Error() string {
	return ErrorOccurred.Error() + ": " + e.Err.Error()
}

func (e *OccurredError) Unwrap() []error {
	return []error{ErrorOccurred, e.Err}
}
