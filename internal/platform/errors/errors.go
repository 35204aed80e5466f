// Package errors is the project error type. Import it as perr.
//
// An *Error carries a Code that decides the HTTP status and whether a caller
// should retry, an optional field for validation failures, an optional op
// label naming where it happened, and the wrapped cause
package errors

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode classifies an error. Values travel on the wire, so append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is anything unclassified
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is a panic recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is a transient dependency failure
	ErrorCodeUnavailable

	// ErrorCodeTooManyRequests is an upstream or local rate limit
	ErrorCodeTooManyRequests

	// ErrorCodeConflict is a uniqueness or state conflict
	ErrorCodeConflict

	// ErrorCodeUnauthorized is a missing or bad credential
	ErrorCodeUnauthorized

	// ErrorCodeForbidden is a credential without the needed rights
	ErrorCodeForbidden

	// ErrorCodeInvalidArgument is a well-formed request with bad values
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is a request body that failed validation tags
	ErrorCodeValidation

	// ErrorCodeJSON is a request body that is not the expected JSON
	ErrorCodeJSON

	// ErrorCodeNotFound is a missing resource
	ErrorCodeNotFound

	// ErrorCodeDB is a database failure with no better class
	ErrorCodeDB

	// ErrorCodeInvalidCode is a betting code the conversion service rejected
	ErrorCodeInvalidCode

	// ErrorCodeUnsupportedPair is a platform pair the conversion service cannot map
	ErrorCodeUnsupportedPair
)

var codeNames = [...]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodePanic:           "panic",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeTooManyRequests: "too_many_requests",
	ErrorCodeConflict:        "conflict",
	ErrorCodeUnauthorized:    "unauthorized",
	ErrorCodeForbidden:       "forbidden",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeJSON:            "json",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDB:              "db",
	ErrorCodeInvalidCode:     "invalid_code",
	ErrorCodeUnsupportedPair: "unsupported_pair",
}

func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// Error is the structured project error
type Error struct {
	code  ErrorCode
	msg   string
	field string
	op    string
	orig  error
}

// Error renders "op: msg: cause", skipping empty parts
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := e.msg
	if e.op != "" {
		s = e.op + ": " + s
	}
	if e.orig != nil {
		s += ": " + e.orig.Error()
	}
	return s
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the classification
func (e *Error) Code() ErrorCode { return e.code }

// Field names the offending input field, if any
func (e *Error) Field() string { return e.field }

// Op names the operation that failed, if set
func (e *Error) Op() string { return e.op }

// New returns an error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with a format
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap classifies orig under code
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf is Wrap with a format
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in the chain, or Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err classifies as code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// WithField returns a copy of err's *Error naming field. Foreign errors pass
// through unchanged
func WithField(err error, field string) error {
	return mutate(err, func(e *Error) { e.field = field })
}

// WithOp returns a copy of err's *Error labelled with op. Foreign errors pass
// through unchanged
func WithOp(err error, op string) error {
	return mutate(err, func(e *Error) { e.op = op })
}

func mutate(err error, fn func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	fn(&c)
	return &c
}

// Root returns the innermost cause in err's chain
func Root(err error) error {
	for err != nil {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

// InvalidArgf returns an InvalidArgument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a Panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf returns an Unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Forbiddenf returns a Forbidden error
func Forbiddenf(format string, a ...any) error { return Newf(ErrorCodeForbidden, format, a...) }

// Unavailablef returns an Unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// TooManyRequestsf returns a TooManyRequests error
func TooManyRequestsf(format string, a ...any) error {
	return Newf(ErrorCodeTooManyRequests, format, a...)
}

// InvalidCodef returns an InvalidCode error
func InvalidCodef(format string, a ...any) error { return Newf(ErrorCodeInvalidCode, format, a...) }

// UnsupportedPairf returns an UnsupportedPair error
func UnsupportedPairf(format string, a ...any) error {
	return Newf(ErrorCodeUnsupportedPair, format, a...)
}
