package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal     = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict     = NewAPIError("CONFLICT", "Resource was modified concurrently", http.StatusConflict)

	ErrNotMatched          = NewAPIError("NOT_MATCHED", "No accepted match with this user", http.StatusNotFound)
	ErrMatchNotFound       = NewAPIError("MATCH_NOT_FOUND", "No open match with this user", http.StatusNotFound)
	ErrDuplicateMatch      = NewAPIError("DUPLICATE_MATCH", "A match with this user already exists", http.StatusConflict)
	ErrMissingLocationData = NewAPIError("MISSING_LOCATION_DATA", "Missing location data", http.StatusNotFound)
	ErrPartiallyApplied    = NewAPIError("PARTIALLY_APPLIED", "Operation only partially applied, retry it", http.StatusServiceUnavailable)
	ErrStoreUnavailable    = NewAPIError("STORE_UNAVAILABLE", "Storage temporarily unavailable", http.StatusServiceUnavailable)
	ErrInvariantViolation  = NewAPIError("INVARIANT_VIOLATION", "Stored data violates an invariant", http.StatusInternalServerError)
)

// ErrUnauthenticated is the session-level name for ErrUnauthorized.
var ErrUnauthenticated = ErrUnauthorized

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}

// Is and As re-export the standard helpers so callers importing this package
// as "errors" keep access to them.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Retryable reports whether err is a transient store error worth another attempt.
func Retryable(err error) bool {
	return Is(err, ErrConflict) || Is(err, ErrStoreUnavailable) || Is(err, ErrPartiallyApplied)
}
