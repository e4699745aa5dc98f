package undertow

import (
	"errors"
	"fmt"

	"github.com/undertow-orm/undertow/criteria"
)

// Standard sentinel errors for common misuse.
var (
	// ErrQueryConsumed is returned when a terminal method runs on a query
	// that already executed. Queries are single-use.
	ErrQueryConsumed = errors.New("undertow: query already executed")

	// ErrNoDriver is returned when an operation runs on an ORM constructed
	// without a driver.
	ErrNoDriver = errors.New("undertow: no driver configured")

	// ErrRegistered is returned when Register is called more than once.
	ErrRegistered = errors.New("undertow: models already registered")
)

// ValidationError reports malformed caller input (e.g. a string used as a
// predicate). Re-exported from the criteria package.
type ValidationError = criteria.ValidationError

// IsValidation reports whether the error is a ValidationError.
func IsValidation(err error) bool { return criteria.IsValidation(err) }

// ConfigError reports a schema or registration defect: a missing target
// model, a missing primary key, a missing relation counterpart, or an unknown
// populate property. It indicates a bug in the model definitions, not in the
// request, and is never retried.
type ConfigError struct {
	Model    string
	Property string
	Target   string
	msg      string
}

func newConfigError(model, property, target, format string, args ...any) *ConfigError {
	return &ConfigError{
		Model:    model,
		Property: property,
		Target:   target,
		msg:      fmt.Sprintf(format, args...),
	}
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	s := "undertow: configuration: " + e.msg
	if e.Model != "" {
		s += fmt.Sprintf(" (model=%s", e.Model)
		if e.Property != "" {
			s += ", property=" + e.Property
		}
		if e.Target != "" {
			s += ", target=" + e.Target
		}
		s += ")"
	}
	return s
}

// IsConfig reports whether the error is a ConfigError.
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// QueryError wraps a driver failure with the model and logical operation that
// triggered it. The underlying error is preserved unchanged for errors.Is and
// errors.As.
type QueryError struct {
	Model string
	Op    string
	Err   error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("undertow: %s %s: %v", e.Model, e.Op, e.Err)
}

// Unwrap returns the wrapped driver error.
func (e *QueryError) Unwrap() error { return e.Err }

func queryError(model, op string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Model: model, Op: op, Err: err}
}
