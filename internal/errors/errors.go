// Package errors defines the error kinds surfaced by the memo client.
//
// Every failure that leaves a component is an *AppError whose Type tells the
// caller how to react: validation errors are resolved locally, auth errors
// send the user back to login, conflict/not-found errors keep the form, and
// network/server errors are shown verbatim and may be retried.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorType represents the kind of error
type ErrorType string

const (
	// Client-side errors
	ErrorTypeValidation ErrorType = "VALIDATION"

	// Errors reported by the server
	ErrorTypeAuth               ErrorType = "AUTH"
	ErrorTypeConflictOrNotFound ErrorType = "CONFLICT_OR_NOT_FOUND"
	ErrorTypeNetworkOrServer    ErrorType = "NETWORK_OR_SERVER"
)

// AppError represents a client error with enough context to present it.
type AppError struct {
	Type       ErrorType         `json:"type"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	Cause      error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithStatus records the HTTP status that produced the error
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// NewValidationError creates a validation error carrying per-field messages.
// The top-level message lists the fields in a stable order.
func NewValidationError(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fields[name])
	}

	return &AppError{
		Type:    ErrorTypeValidation,
		Message: strings.Join(msgs, "; "),
		Fields:  fields,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{
		Type:       ErrorTypeAuth,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewConflictOrNotFoundError creates an error for a target that changed or
// disappeared on the server.
func NewConflictOrNotFoundError(message string, status int) *AppError {
	if message == "" {
		message = "memo not found"
	}
	return &AppError{
		Type:       ErrorTypeConflictOrNotFound,
		Message:    message,
		HTTPStatus: status,
	}
}

// NewServerError creates an error for a non-2xx response from the server.
func NewServerError(message string, status int) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &AppError{
		Type:       ErrorTypeNetworkOrServer,
		Message:    message,
		HTTPStatus: status,
	}
}

// NewNetworkError creates an error for a transport failure
func NewNetworkError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetworkOrServer,
		Message: message,
		Cause:   err,
	}
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsAuth checks if an error is an authentication error
func IsAuth(err error) bool {
	return IsType(err, ErrorTypeAuth)
}

// IsConflictOrNotFound checks if the target of an operation is gone or changed
func IsConflictOrNotFound(err error) bool {
	return IsType(err, ErrorTypeConflictOrNotFound)
}

// IsNetworkOrServer checks if an error came from the transport or a server failure.
// Errors that are not AppErrors are treated as transport failures.
func IsNetworkOrServer(err error) bool {
	if err == nil {
		return false
	}
	appErr := GetAppError(err)
	return appErr == nil || appErr.Type == ErrorTypeNetworkOrServer
}

// UserMessage returns the message to show to a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}

// Is and As re-export the standard library helpers so callers importing
// this package under the name errors keep access to them.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
