package board

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// ErrorCode identifies a class of board error.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrSessionRequired ErrorCode = "SESSION_REQUIRED" // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrSessionBusy     ErrorCode = "SESSION_BUSY"     // 503
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// Error is a structured error carrying an HTTP status and optional details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for a malformed request.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// FieldErrors collects per-field validation failures.
// The zero value is ready to use.
type FieldErrors map[string]string

// Add records a failure for field. The first failure per field wins.
func (f *FieldErrors) Add(field, problem string) {
	if *f == nil {
		*f = FieldErrors{}
	}
	if _, exists := (*f)[field]; !exists {
		(*f)[field] = problem
	}
}

// Err returns nil when no failures were recorded, or a validation error
// naming every offending field.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidation(f)
}

// NewValidation creates a 400 error naming the offending fields.
func NewValidation(fields FieldErrors) *Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msg := "invalid fields: "
	for i, name := range names {
		if i > 0 {
			msg += ", "
		}
		msg += fmt.Sprintf("%s (%s)", name, fields[name])
	}

	return &Error{
		Code:    ErrInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
		Details: map[string]any{"fields": map[string]string(fields)},
	}
}

// NewSessionRequired creates the strict-mode error for requests without a session id.
func NewSessionRequired() *Error {
	return &Error{
		Code:    ErrSessionRequired,
		Status:  http.StatusBadRequest,
		Message: "session id required: create one with GET /session and send it as the X-Session-Id header or the sessionId parameter",
		Details: map[string]any{"createSession": "GET /session"},
	}
}

// NewItemNotFound creates a 404 error for an item missing from a session.
func NewItemNotFound(sessionID, itemID string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("item not found: %s", itemID),
		Details: map[string]any{"itemId": itemID, "sessionId": sessionID},
	}
}

// NewSessionBusy creates a 503 error for a lock wait that gave up.
func NewSessionBusy(sessionID string, cause error) *Error {
	return &Error{
		Code:    ErrSessionBusy,
		Status:  http.StatusServiceUnavailable,
		Message: fmt.Sprintf("session %s is busy: %v", sessionID, cause),
		Details: map[string]any{"sessionId": sessionID},
	}
}

// NewInternal creates a 500 error for unexpected failures.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
	}
}

// AsError extracts a *Error from err's chain, wrapping anything else as INTERNAL.
func AsError(err error) *Error {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr
	}
	return NewInternal(err)
}

// Is reports whether err is a board Error with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND board error.
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}
