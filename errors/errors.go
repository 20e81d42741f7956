// Package errors defines phrasekit's single error type, following the
// teacher's own convention of one small errors subpackage shared by every
// other package rather than ad hoc error values.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/ava12/phrasekit/coord"
)

// Error is the concrete type returned by every phrasekit operation that can
// fail. Pos is the zero coord.Coord when the error has no specific location
// (e.g. a configuration error raised before any input was consumed).
type Error struct {
	Code    int
	Message string
	Pos     coord.Coord
	cause   error
}

func New (code int, msg string, pos coord.Coord) *Error {
	return &Error{Code: code, Message: msg, Pos: pos}
}

func (e *Error) Error () string {
	if e.Pos == coord.Zero {
		return e.Message
	}
	return fmt.Sprintf("%s at row %d col %d", e.Message, e.Pos.Row, e.Pos.Col)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap () error {
	return e.cause
}

// Cause exposes the wrapped cause to github.com/pkg/errors.Cause.
func (e *Error) Cause () error {
	return e.cause
}

// Format builds an Error with no associated position.
func Format (code int, msg string, params ...interface{}) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return New(code, msg, coord.Zero)
}

// FormatPos builds an Error anchored at pos.
func FormatPos (pos coord.Coord, code int, msg string, params ...interface{}) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return New(code, msg, pos)
}

// Wrap builds an Error around cause, preserving it for inspection via Cause
// and github.com/pkg/errors.Cause. Used at the single panic-recovery
// boundary in engine.Parser.Run so a user hook's panic keeps its original
// value reachable rather than being flattened to a string.
func Wrap (cause error, code int, msg string) *Error {
	e := Format(code, msg)
	e.cause = pkgerrors.WithStack(cause)
	return e
}
