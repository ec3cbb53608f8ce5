// Package errors augments the standard errors with sentinel values that
// can carry a cause.
//
// A sentinel declared with New is never mutated: Wrap and Wrapf return a
// copy which still matches the sentinel with errors.Is, so that
//
//	return status.ErrLocked.Wrapf("lock marker %s", path)
//
// is safe from any goroutine and can be checked by callers with
//
//	errors.Is(err, status.ErrLocked)
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
type Error struct {
	msg      string
	err      error
	sentinel *Error
}

// Error message, followed by the message of the wrapped cause if any
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error. The receiver is left untouched.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:      e.msg,
		err:      err,
		sentinel: e.root(),
	}
}

// Wrapf wraps a new error built from a format string.
func (e *Error) Wrapf(format string, args ...interface{}) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	if t, ok := target.(*Error); ok && t == e.root() {
		return true
	}
	return e.err == target
}

func (e *Error) root() *Error {
	if e.sentinel != nil {
		return e.sentinel
	}
	return e
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
