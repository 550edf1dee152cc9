package common

import (
	"errors"

	"github.com/mapavioleta/mapavioleta/logger"
)

// Kind classifies an error by how it must be surfaced to a caller.
type Kind int

const (
	KindStore Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "notFound"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rateLimited"
	default:
		return "store"
	}
}

// Error is a classified domain error. Code is stable and doubles as the
// translation key suffix for user-facing messages.
type Error struct {
	Kind  Kind
	Code  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two errors of the same kind and code, so sentinels compare
// equal to copies carrying a field or a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrDuplicateHandle    = &Error{Kind: KindConflict, Code: "duplicateHandle"}
	ErrDuplicateEmail     = &Error{Kind: KindConflict, Code: "duplicateEmail"}
	ErrDuplicateAccount   = &Error{Kind: KindConflict, Code: "duplicateAccount"}
	ErrInvalidEmail       = &Error{Kind: KindValidation, Code: "invalidEmail"}
	ErrWeakPassword       = &Error{Kind: KindValidation, Code: "weakPassword"}
	ErrPasswordTooLong    = &Error{Kind: KindValidation, Code: "passwordTooLong"}
	ErrPasswordMismatch   = &Error{Kind: KindValidation, Code: "passwordMismatch"}
	ErrMissingField       = &Error{Kind: KindValidation, Code: "missingField"}
	ErrFieldTooLong       = &Error{Kind: KindValidation, Code: "fieldTooLong"}
	ErrInvalidCoordinate  = &Error{Kind: KindValidation, Code: "invalidCoordinate"}
	ErrInvalidDate        = &Error{Kind: KindValidation, Code: "invalidDate"}
	ErrInvalidID          = &Error{Kind: KindValidation, Code: "invalidId"}
	ErrInvalidAction      = &Error{Kind: KindValidation, Code: "invalidAction"}
	ErrInvalidForm        = &Error{Kind: KindValidation, Code: "invalidForm"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Code: "invalidCredentials"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Code: "unauthenticated"}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: "forbidden"}
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "notFound"}
	ErrRateLimited        = &Error{Kind: KindRateLimited, Code: "rateLimited"}
)

// WithField returns a copy of a sentinel naming the offending input field.
func WithField(sentinel *Error, field string) error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Field: field}
}

// StoreError wraps an unexpected persistence failure. A nil err stays nil and
// already classified errors pass through untouched.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStore, Code: "internal", Err: err}
}

// KindOf reports the kind of err; unclassified errors are store errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// CodeOf returns the stable code and offending field of err.
func CodeOf(err error) (code string, field string) {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStore {
		return e.Code, e.Field
	}
	return "internal", ""
}

// Combine joins the non-nil errors, returning nil when there are none.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
