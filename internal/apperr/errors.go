// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the API layer.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindState        Kind = "state"
	KindAuthRequired Kind = "auth_required"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindBackend      Kind = "backend"
)

// Error is a classified error with a user-facing message. Code is a stable
// snake_case identifier clients can switch on.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrState        = &Error{Kind: KindState}
	ErrAuthRequired = &Error{Kind: KindAuthRequired}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrBackend      = &Error{Kind: KindBackend}
)

func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func State(code, msg string) *Error {
	return &Error{Kind: KindState, Code: code, Message: msg}
}

func AuthRequired(msg string) *Error {
	return &Error{Kind: KindAuthRequired, Code: "auth_required", Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// Backend wraps an infrastructure failure. The wrapped error is kept for
// logging; only msg is shown to clients.
func Backend(msg string, err error) *Error {
	return &Error{Kind: KindBackend, Code: "internal_error", Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindBackend for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}
