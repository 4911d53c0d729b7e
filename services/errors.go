package services

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindValidation   Kind = "VALIDATION"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInvalidState Kind = "INVALID_STATE"
	KindOverlap      Kind = "OVERLAP"
	KindTooEarly     Kind = "TOO_EARLY"
	KindConflict     Kind = "CONFLICT"
	KindUnavailable  Kind = "UNAVAILABLE"
)

// Error is a domain failure the API boundary reports as a 4xx.
type Error struct {
	Kind    Kind
	Message string
	// RemainingMinutes is set on TOO_EARLY errors.
	RemainingMinutes int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrOverlap) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrOverlap      = &Error{Kind: KindOverlap}
	ErrTooEarly     = &Error{Kind: KindTooEarly}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnavailable  = &Error{Kind: KindUnavailable}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error   { return newError(KindNotFound, format, args...) }
func Validation(format string, args ...any) error { return newError(KindValidation, format, args...) }
func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}
func InvalidState(format string, args ...any) error {
	return newError(KindInvalidState, format, args...)
}
func Overlap(format string, args ...any) error     { return newError(KindOverlap, format, args...) }
func Conflict(format string, args ...any) error    { return newError(KindConflict, format, args...) }
func Unavailable(format string, args ...any) error { return newError(KindUnavailable, format, args...) }

func TooEarly(remainingMinutes int) error {
	return &Error{
		Kind:             KindTooEarly,
		Message:          fmt.Sprintf("session cannot be completed yet, try again in %d minute(s)", remainingMinutes),
		RemainingMinutes: remainingMinutes,
	}
}

// AsError extracts the domain error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}
