package datasource

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTable is returned for a table that is not exposed or does not exist
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned when a filter names a column the table lacks
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUpstream is returned when the external API cannot be reached or answers with an error
	ErrUpstream = errors.New("upstream request failed")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamError describes a failed upstream request. It matches ErrUpstream
// with errors.Is and also unwraps to the transport or decode error, if any.
type UpstreamError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("upstream %s: HTTP %d: %v", e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("upstream %s: HTTP %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
}

// Unwrap returns ErrUpstream and the underlying error.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}
