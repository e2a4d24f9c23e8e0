package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. A Kind is itself an error so callers can match
// with errors.Is(err, errors.KindNotFound).
type Kind string

const (
	KindInput        Kind = "input_error"
	KindUnauthorized Kind = "unauthorized"
	KindExpired      Kind = "expired"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindIntegrity    Kind = "integrity_error"
	KindPersistence  Kind = "persistence_error"
	KindInternal     Kind = "internal_error"
)

func (k Kind) Error() string {
	return string(k)
}

// HTTPStatus maps a kind to the status code used at the transport boundary
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindExpired:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Machine-readable codes carried in error responses
const (
	CodeMissingToken   = "missing_token"
	CodeTokenNotFound  = "token_not_found"
	CodeInvalidDate    = "invalid_date"
	CodeTokenExpired   = "token_expired"
	CodeMissingDate    = "missing_date"
	CodeBadDate        = "bad_date"
	CodeTokenExists    = "already_exists"
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeStoreRead      = "store_read_failed"
	CodeStoreWrite     = "store_write_failed"
	CodeNotFound       = "not_found"
	CodeMethod         = "method_not_allowed"
	CodeInternal       = "internal_error"
)

// Error is the typed error returned by the service and store layers
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error's Kind
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// HTTPStatus returns the status code for the error's kind
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// New creates an error without a cause
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates an error carrying cause
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// Helper functions for common error kinds

// InputError creates an input error
func InputError(code, message string) *Error {
	return New(KindInput, code, message)
}

// NotFound creates a not found error
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Conflict creates a conflict error
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// PersistenceError creates a persistence error wrapping the storage failure
func PersistenceError(code, message string, cause error) *Error {
	return Wrap(KindPersistence, code, message, cause)
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
