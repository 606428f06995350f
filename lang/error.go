package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Syntax errors. Parsing stops at the first one.
var (
	ErrSyntax       = NewError("syntax error")
	ErrUnexpected   = ErrSyntax.sub("unexpected token")
	ErrExpected     = ErrSyntax.sub("expected token")
	ErrExpectedName = ErrSyntax.sub("Expected a name")
	ErrInvalidName  = ErrSyntax.sub("invalid name")
	ErrUnterminated = ErrSyntax.sub("unterminated literal")
)

// Runtime errors raised while evaluating a script.
var (
	ErrRuntime          = NewError("runtime error")
	ErrNotCallable      = ErrRuntime.sub("value is not callable")
	ErrNotIndexable     = ErrRuntime.sub("value is not indexable")
	ErrNotObject        = ErrRuntime.sub("value is not an object")
	ErrNotConstructor   = ErrRuntime.sub("value is not a constructor")
	ErrInvalidOperand   = ErrRuntime.sub("invalid operand")
	ErrInvalidTarget    = ErrRuntime.sub("invalid assignment target")
	ErrDivideByZero     = ErrRuntime.sub("integer division by zero")
	ErrMaxDepthExceeded = ErrRuntime.sub("maximum call depth exceeded")
	ErrCanceled         = ErrRuntime.sub("evaluation canceled")
)

// ErrReadInput is returned when a script source cannot be read.
var ErrReadInput = NewError("failed to read input")

// Host-interop errors. Each wraps [ErrInterop] so that hosts can tell a
// failing integration apart from a faulty script.
var (
	ErrInterop          = NewError("host interop")
	ErrNoBridge         = ErrInterop.sub("no host bridge configured")
	ErrTypeNotFound     = ErrInterop.sub("host type not found")
	ErrMemberNotFound   = ErrInterop.sub("host member not found")
	ErrArgumentMismatch = ErrInterop.sub("host argument mismatch")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg    string
	err    error       // wrapped cause
	attrs  []slog.Attr // attributes for structured logging
	parent *Error      // sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError adopts err as an *Error, reusing it when err already is one.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// sub derives a sentinel that matches e with errors.Is.
func (e *Error) sub(msg string) *Error {
	return &Error{msg: msg, parent: e}
}

// Error implements the error interface.
//
// The message is "<msg>: <cause>", or whichever of the two is set.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() []error {
	var errs []error

	if e.err != nil {
		errs = append(errs, e.err)
	}

	if e.parent != nil {
		errs = append(errs, e.parent)
	}

	return errs
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached to the error.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:    e.msg,
		err:    err,
		attrs:  e.attrs,
		parent: e,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:    e.msg,
		err:    e.err,
		attrs:  newAttrs,
		parent: e,
	}
}

// WithMessage returns a derived error whose message is replaced by msg.
// The result still matches e with errors.Is.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		msg:    msg,
		err:    e.err,
		attrs:  e.attrs,
		parent: e,
	}
}

// WithPosition attaches a source position to the error.
func (e *Error) WithPosition(pos Position) *Error {
	return e.With(slog.Int("line", pos.Line), slog.Int("column", pos.Column))
}
