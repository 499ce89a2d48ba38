// Package apperr defines the closed set of failure kinds a concept or route
// handler may report. The dispatcher maps each kind to exactly one HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a coarse-grained categorization for errors.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNotAllowed     Kind = "not_allowed"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal"
)

// Error carries a kind, an optional field (validation only) and a
// client-facing message. Err is the underlying cause, never shown to clients.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Msg
	if e.Field != "" {
		base = fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message is what the client sees.
func (e *Error) Message() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: reason}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

func NotAllowed(format string, args ...any) *Error {
	return &Error{Kind: KindNotAllowed, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an arbitrary cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf classifies err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != "" {
		return ae.Kind
	}
	return KindInternal
}

// IsKind helps callers classify errors without a type assertion.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status is total over Kind.
func Status(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotAllowed:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the client-safe text for err. Causes of internal errors
// are never exposed.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal && ae.Kind != "" {
		return ae.Message()
	}
	return "Internal server error"
}
