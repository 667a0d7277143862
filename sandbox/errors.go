package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification, following the same style as the
// teacher's code/errors.go.
var (
	// ErrRuntime indicates the program threw or rejected during execution —
	// either a genuine bug in the model's code, or an ill-formed input
	// tool-state that violated the replay cursor's invariants (spec §7,
	// taxonomy items 2 and 3).
	ErrRuntime = errors.New("sandbox: runtime error")

	// ErrConfiguration indicates an invalid or incomplete Config.
	ErrConfiguration = errors.New("sandbox: configuration error")

	// ErrEngineFailure indicates the engine itself malfunctioned: context
	// bootstrap or script compilation failed. This is fatal and is never
	// reclassified as a code_result error (spec §7, taxonomy item 4).
	ErrEngineFailure = errors.New("sandbox: engine failure")

	// ErrLimitExceeded indicates a configured resource limit (memory cap,
	// wall-clock timeout) was hit during execution.
	ErrLimitExceeded = errors.New("sandbox: limit exceeded")

	// ErrInvalidToolState indicates the caller supplied a tool-state entry
	// with a status other than resolved/rejected as Evaluate's input — the
	// engine-internal "unexpectedPendingTool" sentinel of spec §4.A.
	ErrInvalidToolState = errors.New("sandbox: invalid tool state")
)

// RuntimeError describes a failure inside the executed program, with
// source-location information when the engine can recover it. It mirrors
// the teacher's code.CodeError.
type RuntimeError struct {
	// Message describes the error as reported by the program.
	Message string

	// Line is the 1-based line number where the error occurred, if known.
	Line int

	// Column is the 1-based column number where the error occurred, if known.
	Column int

	// Value is the raw JSON-serializable value the program's rejection
	// carried, when it wasn't a plain string/Error.
	Value any

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches ErrRuntime, allowing sentinel-style
// error checking without losing the detail in the concrete type.
func (e *RuntimeError) Is(target error) bool {
	return target == ErrRuntime
}
