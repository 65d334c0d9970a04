package error

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents a caller-visible error category
type ErrorCode string

const (
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	// RetryAfter is set for RATE_LIMITED and CONFLICT errors when the caller
	// may try again.
	RetryAfter time.Duration `json:"-"`
	Cause      error         `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches two AppErrors by code so errors.Is(err, ErrNotFound("")) works.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Status maps the error code to an HTTP status code
func (e *AppError) Status() int {
	switch e.Code {
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

func ErrBadRequest(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, "", nil)
}

func ErrMissingField(field string) *AppError {
	return NewAppError(ErrCodeBadRequest, "Missing required field", fmt.Sprintf("Field: %s", field), nil)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, "", nil)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, "", nil)
}

func ErrRateLimitExceeded(retryAfter time.Duration) *AppError {
	e := NewAppError(ErrCodeRateLimited, "Too many requests", fmt.Sprintf("Retry after: %s", retryAfter.Round(time.Second)), nil)
	e.RetryAfter = retryAfter
	return e
}

func ErrNotFound(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), "", nil)
}

func ErrConflict(message string, cause error) *AppError {
	e := NewAppError(ErrCodeConflict, message, "", cause)
	e.RetryAfter = time.Second
	return e
}

func ErrInternalServerError(details string, cause error) *AppError {
	return NewAppError(ErrCodeInternal, "Internal server error", details, cause)
}

// From maps any error to an AppError. Errors that are not already AppErrors
// are treated as internal failures and never leak their text to callers.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError("", err)
}

// GetHTTPStatusCode returns the HTTP status for any error
func GetHTTPStatusCode(err error) int {
	return From(err).Status()
}
