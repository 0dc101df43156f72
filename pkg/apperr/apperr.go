package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so handlers can pick an HTTP status without
// matching on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindPermission
	KindNotFound
	KindPersistence
	KindExternal
)

// Error carries a kind alongside the message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }
func Conflict(msg string) *Error   { return New(KindConflict, msg) }
func Permission(msg string) *Error { return New(KindPermission, msg) }
func NotFound(msg string) *Error   { return New(KindNotFound, msg) }
func Persistence(err error) *Error { return Wrap(KindPersistence, "storage operation failed", err) }

func External(msg string, err error) *Error { return Wrap(KindExternal, msg, err) }

// KindOf extracts the kind from err, unwrapping as needed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
