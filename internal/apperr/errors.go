// Package apperr classifies domain failures so handlers can map them to HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the broad failure category.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindUpstream
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified domain error. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so wrapped copies compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a copy of the sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Cause: cause}
}

// Validation builds an ad-hoc 400 error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: message}
}

// Upstream marks a collaborator failure the request depended on.
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: "UPSTREAM", Message: message, Cause: cause}
}

var (
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbidden    = New(KindForbidden, "FORBIDDEN", "insufficient role")
)

// As extracts the classified error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err; unclassified errors are 500.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Kind.Status()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns a caller-safe message; unclassified errors never leak detail.
func PublicMessage(err error) string {
	if e, ok := As(err); ok && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
