// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels, and additional details. It also
// includes utilities for mapping errors onto HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Validation
	CodeInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	CodeInvalidGrid       ErrorCode = "INVALID_GRID"
	CodeInvalidCoordinate ErrorCode = "INVALID_COORDINATE"
	CodeGridTooLarge      ErrorCode = "GRID_TOO_LARGE"
	CodeUnknownAlgorithm  ErrorCode = "UNKNOWN_ALGORITHM"

	// Runtime
	CodeRateLimited ErrorCode = "RATE_LIMITED"
	CodeCacheError  ErrorCode = "CACHE_ERROR"
	CodeTimeout     ErrorCode = "TIMEOUT"
	CodeCanceled    ErrorCode = "CANCELED"

	// General
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeInternal      ErrorCode = "INTERNAL"
	CodeUnimplemented ErrorCode = "UNIMPLEMENTED"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a severe error that might require immediate human intervention.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details, an underlying cause, and a severity level.
type Error struct {
	Code     ErrorCode      // Code is a unique identifier for the type of error.
	Message  string         // Message is a human-readable description of the error.
	Field    string         // Field indicates which input field caused the error, if applicable.
	Details  map[string]any // Details provides additional structured information about the error.
	Cause    error          // Cause is the underlying error that triggered this application error.
	Severity Severity       // Severity indicates the criticality level of the error.
}

// Error implements the error interface, returning a string representation of the error.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidArgument, CodeInvalidGrid, CodeInvalidCoordinate, CodeUnknownAlgorithm:
		return http.StatusBadRequest
	case CodeGridTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeCanceled:
		return 499
	case CodeUnimplemented:
		return http.StatusNotImplemented
	case CodeCacheError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new application error with the given code and message.
// The default severity is SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewWithField creates a new application error with the given code, message, and field.
func NewWithField(code ErrorCode, message, field string) *Error {
	e := New(code, message)
	e.Field = field
	return e
}

// NewWarning creates a new application error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	return New(code, message).WithSeverity(SeverityWarning)
}

// Wrap creates a new application error that wraps an existing error,
// providing additional context with a code and message.
func Wrap(cause error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithDetails adds a key-value pair to the error's details map and returns the modified error.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns the modified error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error and returns the modified error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks if the given error is an application error with a matching ErrorCode.
// It uses errors.As to unwrap the error chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// =============================================================================
// HTTP mapping
// =============================================================================

// Body is the JSON error payload returned by the HTTP API.
type Body struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// ToHTTP converts any error into an HTTP status and response body.
// Errors that are not *Error become INTERNAL without leaking their text.
func ToHTTP(err error) (int, Body) {
	var appErr *Error
	if errors.As(err, &appErr) {
		body := Body{Code: appErr.Code, Message: appErr.Message, Field: appErr.Field}
		if len(appErr.Details) > 0 {
			body.Details = appErr.Details
		}
		return appErr.HTTPStatus(), body
	}
	return http.StatusInternalServerError, Body{Code: CodeInternal, Message: "internal error"}
}

// Predefined errors for common scenarios.
var (
	ErrRateLimited = New(CodeRateLimited, "too many requests")
	ErrTimeout     = New(CodeTimeout, "operation timed out")
)

// =============================================================================
// Validation
// =============================================================================

// ValidationErrors is a collection of application errors and warnings,
// typically used for aggregating results of multiple validation checks.
type ValidationErrors struct {
	Errors   []*Error // Errors contains all collected errors (SeverityError and SeverityCritical).
	Warnings []*Error // Warnings contains all collected warnings (SeverityWarning).
}

// NewValidationErrors creates and returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add appends an *Error to the appropriate slice (Errors or Warnings)
// based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddErrorWithField creates and adds a new application error with a specific field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// HasErrors returns true if the collection contains any errors (non-warning severity).
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Err returns nil when the collection has no errors. Otherwise it returns the
// first error, with every message listed under the "errors" detail.
func (v *ValidationErrors) Err() error {
	if !v.HasErrors() {
		return nil
	}
	first := *v.Errors[0]
	first.Details = map[string]any{"errors": v.ErrorMessages()}
	return &first
}

// ErrorMessages returns a slice of string messages for all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}
