package criteria

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input. It is never retried; the
// caller must fix the criteria.
type ValidationError struct {
	msg string
}

// NewValidationError formats a new ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "undertow: validation: " + e.msg
}

// IsValidation reports whether the error is a ValidationError.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}
