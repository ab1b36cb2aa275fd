package crossbar

import (
	"errors"
	"fmt"
)

// ErrCode categorizes configuration failures rejected at construction time.
type ErrCode string

const (
	ErrCodeDuplicateName  ErrCode = "duplicate line name"
	ErrCodeUnknownKind    ErrCode = "unknown line kind"
	ErrCodeForwardRef     ErrCode = "forward or cyclic reference"
	ErrCodeMissingParam   ErrCode = "missing required parameter"
	ErrCodeOutOfRange     ErrCode = "referenced line id out of range"
	ErrCodeEmptyConfig    ErrCode = "empty config table"
)

// Error represents a structured crossbar configuration error: everything
// rejected by New before any line ever mutates. Runtime misuse of an
// already-constructed Crossbar is a programmer bug and panics instead (see
// MisuseError); only construction-time problems are returned as errors.
type Error struct {
	Op    string  // the constructor step that failed, e.g. "validate"
	Line  string  // line name involved, if any
	Index int     // line index involved, -1 if not applicable
	Code  ErrCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	var parts []string
	if e.Line != "" {
		parts = append(parts, fmt.Sprintf("line=%s", e.Line))
	}
	if e.Index >= 0 {
		parts = append(parts, fmt.Sprintf("index=%d", e.Index))
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("crossbar: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("crossbar: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

func newError(op string, code ErrCode, msg string) *Error {
	return &Error{Op: op, Index: -1, Code: code, Msg: msg}
}

func newLineError(op, line string, index int, code ErrCode, msg string) *Error {
	return &Error{Op: op, Line: line, Index: index, Code: code, Msg: msg}
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// MisuseError is a programmer error at runtime: wrong operation for a
// line's kind, or an out-of-range id. It is never returned — it is always
// the argument to panic, matching spec's stance that these are local bugs
// in control code, not recoverable conditions.
type MisuseError struct {
	Op    string
	Index int
	Kind  Kind
	Msg   string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("crossbar: misuse: %s on line %d (%s): %s", e.Op, e.Index, e.Kind, e.Msg)
}

func misuse(op string, index int, kind Kind, msg string) {
	panic(&MisuseError{Op: op, Index: index, Kind: kind, Msg: msg})
}
