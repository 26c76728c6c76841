package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Kind classifies an error for callers; the HTTP layer turns it into a status code.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a user-facing error. Message and Hint are safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (err *Error) Error() string {
	return err.Message
}

// WithHint returns a copy of err carrying hint.
func (err *Error) WithHint(hint string) *Error {
	cp := *err
	cp.Hint = hint
	return &cp
}

// Is makes copies returned by WithHint match their sentinel.
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return err.Kind == t.Kind && err.Message == t.Message
}

// KindOf returns the Kind of err's root cause.
func KindOf(err error) Kind {
	switch cause := errors.Cause(err).(type) {
	case nil:
		return KindInternal
	case *Error:
		return cause.Kind
	case *ValidationError, validator.ValidationErrors:
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
