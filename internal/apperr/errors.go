// Package apperr defines the typed failures raised by the domain services.
// Every failure carries a stable Kind so the HTTP layer can map it to a fixed
// status code without inspecting message text.
package apperr

import "errors"

// Kind is a stable marker for a class of failure.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidCredential Kind = "invalid_credential"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// Error is a domain failure. Message is safe to show to callers for every
// kind except KindInternal; Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Wrap returns an *Error of the given kind carrying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Validation(msg string) *Error        { return New(KindValidation, msg) }
func NotFound(msg string) *Error          { return New(KindNotFound, msg) }
func Conflict(msg string) *Error          { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error      { return New(KindUnauthorized, msg) }
func InvalidCredential(msg string) *Error { return New(KindInvalidCredential, msg) }
func Forbidden(msg string) *Error         { return New(KindForbidden, msg) }

// Internal wraps an unexpected collaborator failure.
func Internal(msg string, cause error) *Error { return Wrap(KindInternal, msg, cause) }

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
