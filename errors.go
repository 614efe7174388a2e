package chunkjson

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes (exported consts for IDE completion and errors.Is matching)
const (
	CodeMalformedInput     = "malformed_input"
	CodeMalformedPatchLine = "malformed_patch_line"
	CodeInvalidIndex       = "invalid_index"
	CodeIndexOutOfBounds   = "index_out_of_bounds"
	CodeInvalidPlaceholder = "invalid_placeholder"
	CodeInvalidKeyIndex    = "invalid_key_index"
	CodeNotAString         = "not_a_string"
	CodeCyclicReference    = "cyclic_reference"
	CodeDepthExceeded      = "depth_exceeded"
	CodeLimitExceeded      = "limit_exceeded"
	CodeIOFailure          = "io_failure"
)

// Phase names the decode step an Error was raised in.
type Phase string

const (
	PhaseLoad   Phase = "load"
	PhasePatch  Phase = "patch"
	PhaseDecode Phase = "decode"
	PhaseWrite  Phase = "write"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrMalformedInput     = &Error{Code: CodeMalformedInput}
	ErrMalformedPatchLine = &Error{Code: CodeMalformedPatchLine}
	ErrInvalidIndex       = &Error{Code: CodeInvalidIndex}
	ErrIndexOutOfBounds   = &Error{Code: CodeIndexOutOfBounds}
	ErrInvalidPlaceholder = &Error{Code: CodeInvalidPlaceholder}
	ErrInvalidKeyIndex    = &Error{Code: CodeInvalidKeyIndex}
	ErrNotAString         = &Error{Code: CodeNotAString}
	ErrCyclicReference    = &Error{Code: CodeCyclicReference}
	ErrDepthExceeded      = &Error{Code: CodeDepthExceeded}
	ErrLimitExceeded      = &Error{Code: CodeLimitExceeded}
	ErrIOFailure          = &Error{Code: CodeIOFailure}
)

// Error is the single error type returned by the decoder. Every Error is
// fatal for the decode that produced it.
type Error struct {
	Code    string // One of the codes listed above.
	Phase   Phase  // Empty until the decoder attributes the error to a step.
	Message string
	Line    int   // 1-based input line; 0 when unknown.
	Chunk   int   // Chunk index the error concerns; -1 when unknown.
	Cause   error // Optional: underlying error.
}

func newError(code string, chunk int, format string, args ...any) *Error {
	return &Error{Code: code, Chunk: chunk, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code string, cause error, format string, args ...any) *Error {
	e := newError(code, -1, format, args...)
	e.Cause = cause
	return e
}

// Error renders "<phase>: <message>" followed by location details.
func (e *Error) Error() string {
	b := &strings.Builder{}
	if e.Phase != "" {
		b.WriteString(string(e.Phase))
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(strings.ReplaceAll(e.Code, "_", " "))
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	switch {
	case e.Line > 0 && e.Chunk >= 0:
		fmt.Fprintf(b, " (line %d, chunk %d)", e.Line, e.Chunk)
	case e.Line > 0:
		fmt.Fprintf(b, " (line %d)", e.Line)
	case e.Chunk >= 0 && e.Message != "":
		fmt.Fprintf(b, " (chunk %d)", e.Chunk)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// AsError extracts an *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// attribute stamps phase and line onto err when it is an *Error that has not
// been attributed yet.
func attribute(err error, phase Phase, line int) error {
	if e, ok := AsError(err); ok && e.Phase == "" {
		e.Phase = phase
		if e.Line == 0 {
			e.Line = line
		}
	}
	return err
}
