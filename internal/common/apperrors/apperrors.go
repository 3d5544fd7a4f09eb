// Package apperrors defines the application error type used across courier.
// Errors are immutable values: every method derives a new error, so a
// package-level sentinel can be specialized per call site while errors.Is
// still matches the sentinel.
package apperrors

import (
	"errors"
	"strings"
)

// Error is the application error contract. It extends error with derivation
// methods (each returns a new Error), an HTTP status code, and access to the
// attached error chain.
type Error interface {
	error
	Unwrap() error

	New(msg string) Error                  // fresh error templated on this one
	Msg(msg string) Error                  // new message, this error wrapped
	MsgErr(msg string, err ...error) Error // new message, extra errors attached
	Err(err ...error) Error                // same message, extra errors attached
	SetExpandError(bool) Error             // whether ErrorAll includes attached errors
	SetStatusCode(int) Error
	StatusCode() int
	ErrorAll() string
	UnwrapAll() []error
}

// appError is the sole implementation. cause points at the error a method
// was derived from; attached holds everything ErrorAll reports.
type appError struct {
	text     string
	cause    error
	attached []error
	status   int
	expand   bool
}

// New creates a root error. Sentinels are declared with this and given a
// status with SetStatusCode.
func New(msg string) Error {
	return &appError{text: msg}
}

func (e *appError) Error() string {
	return e.text
}

// ErrorAll renders the message followed by every attached error, when
// expansion is on.
func (e *appError) ErrorAll() string {
	if !e.expand {
		return e.text
	}
	parts := make([]string, 0, len(e.attached)+1)
	parts = append(parts, e.text)
	for _, err := range e.attached {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *appError) Unwrap() error {
	return e.cause
}

func (e *appError) UnwrapAll() []error {
	return e.attached
}

// derive builds a child error carrying e as its cause. Status code is
// inherited; the expansion flag deliberately is not, callers opt in per
// rendering site.
func (e *appError) derive(msg string, attached []error) *appError {
	return &appError{
		text:     msg,
		cause:    e,
		attached: attached,
		status:   e.status,
	}
}

func (e *appError) New(msg string) Error {
	return e.derive(msg, nil)
}

func (e *appError) Msg(msg string) Error {
	return e.derive(msg, append([]error{e}, e.attached...))
}

func (e *appError) MsgErr(msg string, errs ...error) Error {
	return e.derive(msg, append([]error{e}, errs...))
}

func (e *appError) Err(errs ...error) Error {
	return e.derive(e.text, append([]error{e}, errs...))
}

func (e *appError) SetExpandError(flag bool) Error {
	cp := *e
	cp.expand = flag
	return &cp
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.status = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.status
}

// Is matches the cause chain and every attached error, so errors.Is finds a
// sentinel regardless of which derivation path produced the value.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.cause, target) {
		return true
	}
	for _, err := range e.attached {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
