// Package errors provides the structured, non-recoverable failure type this
// core returns to its callers. It plays the same role as the teacher's
// errors package (NewDetailErr/DetailError/ErrCode), extended with a Kind so
// callers can tell a bad wire format apart from a stale pricing record
// without string-matching, and backed by github.com/pkg/errors for the root
// cause chain instead of a hand-rolled call-stack walk.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// CoreError is the DetailError-equivalent: every failure this module returns
// carries a Kind, a stable ErrCode, and the wrapped root cause.
type CoreError struct {
	kind  Kind
	code  ErrCode
	msg   string
	cause error
}

func (e *CoreError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.kind, e.msg)
}

func (e *CoreError) Unwrap() error { return e.cause }

func (e *CoreError) Kind() Kind   { return e.kind }
func (e *CoreError) Code() ErrCode { return e.code }

// Root returns the innermost cause, matching the teacher's errors.RootErr.
func (e *CoreError) Root() error {
	var root error = e
	for {
		next := pkgerrors.Unwrap(root)
		if next == nil {
			return root
		}
		root = next
	}
}

// New constructs a CoreError with no wrapped cause.
func New(kind Kind, code ErrCode, msg string) *CoreError {
	return &CoreError{kind: kind, code: code, msg: msg}
}

// Newf constructs a CoreError with a formatted message.
func Newf(kind Kind, code ErrCode, format string, args ...interface{}) *CoreError {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// Wrap attaches kind/code/msg to an existing error, preserving it as the
// root cause (mirrors the teacher's elaerr.NewDetailErr).
func Wrap(kind Kind, code ErrCode, err error, msg string) *CoreError {
	if err == nil {
		return nil
	}
	return &CoreError{kind: kind, code: code, msg: msg, cause: pkgerrors.WithStack(err)}
}

// Is reports whether err is a CoreError of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CoreError)
	return ok && ce.kind == kind
}
