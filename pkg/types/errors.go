package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies the kind of a condition. Codes double as the
// Scheme-visible condition type symbols used by handlers.
type ErrorCode string

// Condition kinds.
const (
	ErrUnboundVariable ErrorCode = "unbound-variable"
	ErrNotAValue       ErrorCode = "not-a-value"
	ErrBadSyntax       ErrorCode = "bad-syntax"
	ErrBadType         ErrorCode = "bad-type"
	ErrBadArgument     ErrorCode = "bad-argument"
	ErrHost            ErrorCode = "host-error"
	ErrUser            ErrorCode = "user-error"
	ErrExit            ErrorCode = "exit"
	ErrInternal        ErrorCode = "internal-error"

	// Reader errors.
	ErrRead       ErrorCode = "read-error"
	ErrIncomplete ErrorCode = "incomplete"
)

// Error is a structured condition. It is both a Go error and a first-class
// Scheme value that handlers receive.
type Error struct {
	Code      ErrorCode
	Message   string
	Irritants []Value
	// Payload is the object passed to raise, when it was not a condition.
	Payload Value
	// Status is the exit status requested by exit.
	Status int
	// Position is the byte offset of reader errors, -1 otherwise.
	Position int
	Err      error
}

// NewError creates a condition with optional irritants.
func NewError(code ErrorCode, message string, irritants ...Value) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Irritants: irritants,
		Position:  -1,
	}
}

// Errorf creates a condition with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Position >= 0 {
		fmt.Fprintf(&b, " at position %d", e.Position)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, irr := range e.Irritants {
		b.WriteByte(' ')
		b.WriteString(String(irr, true))
	}
	if e.Err != nil && e.Code == ErrHost {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithPosition records a source offset.
func (e *Error) WithPosition(pos int) *Error {
	e.Position = pos
	return e
}

// Catchable reports whether ordinary handlers may intercept the condition.
// Exit requests and internal invariant violations always reach the top level.
func (e *Error) Catchable() bool {
	return e.Code != ErrExit && e.Code != ErrInternal
}

// Matches reports whether a handler guarding code would catch e. The code
// "error" matches every catchable condition. A host-error also matches the
// code of the condition it wraps.
func (e *Error) Matches(code ErrorCode) bool {
	if !e.Catchable() {
		return false
	}
	if code == "error" || code == e.Code {
		return true
	}
	if e.Code == ErrHost {
		var inner *Error
		if errors.As(e.Err, &inner) && inner != e {
			return inner.Matches(code)
		}
	}
	return false
}

// Wrap converts any Go error into a condition. Conditions pass through
// unchanged; anything else becomes a host-error carrying the original cause.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(ErrHost, "host error").WithCause(err)
}

// Internal reports an invariant violation. Any occurrence is a defect.
func Internal(format string, args ...interface{}) *Error {
	return Errorf(ErrInternal, format, args...)
}

// IsIncomplete reports whether err signals input that ended mid-datum.
func IsIncomplete(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrIncomplete
}
