package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types. NotFound, InvalidState and Validation are caller
// logic errors and never retried; Conflict means row-lock contention and is
// safe to retry as a whole operation.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidState       = errors.New("invalid state for operation")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("concurrent modification conflict")
	ErrInternal           = errors.New("internal server error")
	ErrTemporaryFailure   = errors.New("temporary failure")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
)

// AppError represents a structured application error with context
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Retryable  bool
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int, retryable bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Context:    make(map[string]interface{}),
	}
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	return errors.Is(err, ErrTemporaryFailure) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConflict)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, false)
}

// NewInvalidStateError creates an invalid state error naming the offending
// status, e.g. rejecting an apply call on a pending_approval amendment
func NewInvalidStateError(operation, currentStatus string) *AppError {
	msg := fmt.Sprintf("cannot %s in status %q", operation, currentStatus)
	return NewAppError(ErrInvalidState, msg, http.StatusBadRequest, false).
		WithContext("status", currentStatus)
}

// NewValidationError creates a validation error for a malformed payload
func NewValidationError(message string) *AppError {
	return NewAppError(ErrValidation, message, http.StatusBadRequest, false)
}

// NewConflictError creates a retryable conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, true)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrInternal, message, http.StatusInternalServerError, true)
}

// NewTemporaryError creates a temporary error
func NewTemporaryError(message string) *AppError {
	return NewAppError(ErrTemporaryFailure, message, http.StatusServiceUnavailable, true)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *AppError {
	return NewAppError(ErrTimeout, message, http.StatusGatewayTimeout, true)
}
