// Package apperrors provides the error kinds shared across the application.
package apperrors

import (
	"errors"
	"fmt"
)

// StatusError represents an unexpected HTTP status returned by the API.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// NewStatusError creates a new StatusError.
func NewStatusError(statusCode int, body string) *StatusError {
	return &StatusError{StatusCode: statusCode, Body: body}
}

// DecodeError represents a failure to decode an API payload: bad base64,
// invalid UTF-8 text, or a malformed response structure. It is a distinct
// kind so callers never confuse it with a missing file.
type DecodeError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %v", e.Reason, e.Err)
	}
	return "decode " + e.Reason
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(reason string, err error) *DecodeError {
	return &DecodeError{Reason: reason, Err: err}
}

// NetworkError represents a transport-level failure (timeout, DNS, TLS).
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Common static errors used throughout the application.
var (
	// ErrNotConfigured is returned when the token, repository or path template is missing.
	ErrNotConfigured = errors.New("not configured (set token, repository and path template)")

	// ErrInvalidRepository is returned when the repository identifier is not "owner/name".
	ErrInvalidRepository = errors.New(`invalid repository identifier (expected "owner/name")`)

	// ErrInvalidPathTemplate is returned when the path template is missing a date placeholder.
	ErrInvalidPathTemplate = errors.New("path template must contain YYYY, MM and DD placeholders")

	// ErrAuth is returned on a 401 response (invalid or expired token).
	ErrAuth = errors.New("authentication failed: invalid token")

	// ErrNotFound is returned on a 404 response for operations where absence is an error.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a 409 response when the supplied version token is stale.
	ErrConflict = errors.New("remote content changed since last read")

	// ErrRateLimited is returned on a 403 response from the API.
	ErrRateLimited = errors.New("API rate limit reached, retry later")

	// ErrValidation is returned on a 422 response (malformed write).
	ErrValidation = errors.New("remote rejected the write as malformed")

	// ErrEmptyContent is returned when an empty document would be written.
	ErrEmptyContent = errors.New("refusing to write empty content")

	// ErrSaveInProgress is returned when a save is started while another one is running.
	ErrSaveInProgress = errors.New("save already in progress")
)
