package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the store, repository and service layers.
// Callers match them with errors.Is; layers wrap with fmt.Errorf("...: %w", err).
var (
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedMediaType = errors.New("only PDF files are allowed")
	ErrPayloadTooLarge      = errors.New("file exceeds maximum allowed size")
	ErrStorage              = errors.New("storage failure")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("admin privileges required")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Required builds the ValidationError used for empty required fields.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
