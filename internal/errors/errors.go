// Package errors provides the error definitions and classification helpers
// shared by servloc's packages. It defines sentinel errors, semantic error
// types that hosting code can match on, and helpers that classify an error
// by severity and retry behavior.
//
// # Error Types
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found (an unprovided service)
//   - AlreadyExistsError: resource already exists (a service provided twice)
//   - OperationError: a generic failure (a poisoned service)
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewNotFoundError("service", "audio.Subsystem")
//	err := errors.NewValidationError("unknown driver").WithField("driver").WithValue("ogg")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrOperationFailed) { ... }
//
//	var notFound *errors.NotFoundError
//	if errors.As(err, &notFound) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity ranks how loudly an error should be reported.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{"debug", "info", "warning", "error", "critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

var (
	// ErrInvalidInput matches every ValidationError.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed matches every OperationError.
	ErrOperationFailed = New("operation failed")
	// ErrUnknownDriver indicates that no audio driver is registered under a name.
	ErrUnknownDriver = New("unknown driver")
)

// Classified is implemented by every error type in this package.
type Classified interface {
	error
	Unwrap() error
	Severity() Severity
	// IsRetryable reports whether the failing call may succeed later without
	// any change from the caller, e.g. once a provider has registered.
	IsRetryable() bool
	// IsUserFacing reports whether the message is fit for a terminal.
	IsUserFacing() bool
}

// class carries the message and classification shared by the semantic types.
type class struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (c *class) Error() string {
	if c.cause != nil {
		return fmt.Sprintf("%s: %v", c.message, c.cause)
	}
	return c.message
}

func (c *class) Unwrap() error      { return c.cause }
func (c *class) Severity() Severity { return c.severity }
func (c *class) IsRetryable() bool  { return c.retryable }
func (c *class) IsUserFacing() bool { return c.userFacing }

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("service", "audio.Subsystem")
//	fmt.Println(err) // "service 'audio.Subsystem' not found"
type NotFoundError struct {
	class
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		class: class{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// WithRetryable marks the lookup as one that may succeed later, e.g. once a
// provider has registered.
func (e *NotFoundError) WithRetryable(r bool) *NotFoundError {
	e.retryable = r
	return e
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("service", "audio.Subsystem")
//	fmt.Println(err) // "service 'audio.Subsystem' already exists"
type AlreadyExistsError struct {
	class
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		class: class{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// OperationError represents a failure with no more specific class. It always
// matches ErrOperationFailed.
//
// Example:
//
//	err := errors.NewOperationError("access service audio.Subsystem", cause)
//	fmt.Println(err) // "operation failed: access service audio.Subsystem: <cause>"
type OperationError struct {
	class
	Operation string
}

// NewOperationError creates a new OperationError.
func NewOperationError(operation string, cause error) *OperationError {
	return &OperationError{
		class: class{
			message:    operation,
			cause:      cause,
			severity:   SeverityError,
			userFacing: false,
		},
		Operation: operation,
	}
}

// Error returns the formatted error message.
func (e *OperationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("operation failed: %s: %v", e.Operation, e.cause)
	}
	return "operation failed: " + e.Operation
}

// Is checks if this error matches the target.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("unsupported driver")
//	err = err.WithField("driver").WithValue("ogg")
type ValidationError struct {
	class
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		class: class{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// classify finds the first Classified error in err's chain.
func classify(err error) (Classified, bool) {
	var c Classified
	if err == nil || !As(err, &c) {
		return nil, false
	}
	return c, true
}

// IsRetryable reports whether err may clear on retry, such as a service that
// has not been provided yet. Unclassified errors are not retryable.
func IsRetryable(err error) bool {
	c, ok := classify(err)
	return ok && c.IsRetryable()
}

// IsUserFacing reports whether err's message is safe to print as is.
func IsUserFacing(err error) bool {
	c, ok := classify(err)
	return ok && c.IsUserFacing()
}

// GetSeverity returns err's severity. Unclassified errors are SeverityError
// and nil is SeverityDebug.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	if c, ok := classify(err); ok {
		return c.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load provider file")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to load provider file %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
