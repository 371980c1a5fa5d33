package service

import (
	"context"
	"errors"
)

// Kind classifies a failure so the boundary layer can pick a status code
// without inspecting store details.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindPersistence
	KindStoreUnavailable
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

// Error is returned by every Service operation.  Field names the request
// attribute a validation failure belongs to; Err keeps the underlying store
// error for logging and is never part of Message.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Message + ": " + e.Field
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, service.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Field == "" && t.Message == ""
}

// Sentinels for errors.Is.  They carry only a Kind.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrPersistence      = &Error{Kind: KindPersistence}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
	ErrTimeout          = &Error{Kind: KindTimeout}
)

// KindOf extracts the Kind of err, or 0 when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationErr(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func notFoundErr(err error) *Error {
	return &Error{Kind: KindNotFound, Message: "showtime not found", Err: err}
}

// storeErr wraps a store failure.  Deadline and cancellation errors become
// KindTimeout whatever the operation.
func storeErr(kind Kind, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Message: "store did not respond in time", Err: err}
	}
	msg := "could not save showtime"
	if kind == KindStoreUnavailable {
		msg = "showtime store unavailable"
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}
