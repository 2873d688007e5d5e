// Package apperr classifies failures into the kinds the API reports to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the taxonomy entry an error maps to.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Unauthorized
	Forbidden
	Conflict
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a kind, a message safe to show to clients, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf reports bad input (400).
func Validationf(format string, args ...interface{}) error { return newf(Validation, format, args...) }

// NotFoundf reports a missing record (404).
func NotFoundf(format string, args ...interface{}) error { return newf(NotFound, format, args...) }

// Unauthorizedf reports a missing or bad credential (401).
func Unauthorizedf(format string, args ...interface{}) error {
	return newf(Unauthorized, format, args...)
}

// Forbiddenf reports a caller without the needed capability (403).
func Forbiddenf(format string, args ...interface{}) error { return newf(Forbidden, format, args...) }

// Conflictf reports a clash with existing data, such as a duplicate key. It answers 400.
func Conflictf(format string, args ...interface{}) error { return newf(Conflict, format, args...) }

// Wrap attaches a client-facing message and kind to err. A nil err stays nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err classifies as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message for err. Unclassified errors pass
// their own text through.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
