package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Admission and access-gate errors. The HTTP statuses are the transport
// mapping used by the handler layer; the codes are the engine contract.
var (
	ErrSessionNotFound      = New("SESSION_NOT_FOUND", http.StatusNotFound, "session not found")
	ErrSessionNotEnrollable = New("SESSION_NOT_ENROLLABLE", http.StatusUnprocessableEntity, "session is not open for enrollment")
	ErrDuplicateEnrollment  = New("DUPLICATE_ENROLLMENT", http.StatusConflict, "learner already has a live enrollment for this session")
	ErrCapacityExceeded     = New("CAPACITY_EXCEEDED", http.StatusConflict, "session has reached its participant capacity")
	ErrOccurrenceNotFound   = New("OCCURRENCE_NOT_FOUND", http.StatusNotFound, "occurrence not found")
	ErrNotEnrolled          = New("NOT_ENROLLED", http.StatusForbidden, "learner is not enrolled in this session")
	ErrOutsideAccessWindow  = New("OUTSIDE_ACCESS_WINDOW", http.StatusForbidden, "occurrence is outside its access window")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same domain code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
