package bytecode

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of runtime failure.
type ErrorCode int

// Stable error codes - do not change values.
const (
	CodeOutOfRange     ErrorCode = 1001 // VM1001: read past the tape or an invalid slot
	CodeTypeMismatch   ErrorCode = 1002 // VM1002: operand of the wrong kind
	CodeUnknownHint    ErrorCode = 1003 // VM1003: reserved hint dispatched
	CodeUnresolvedJump ErrorCode = 1004 // VM1004: jump operand never patched
	CodeBadOpcode      ErrorCode = 1005 // VM1005: unknown tag or wrong result shape
)

// String returns the code as "VM1001" format.
func (c ErrorCode) String() string {
	return fmt.Sprintf("VM%d", int(c))
}

// VMError is a fatal execution or decoding error.
type VMError struct {
	Code    ErrorCode
	Offset  int // tape offset of the failing word, -1 if unknown
	Message string
	Err     error // underlying cause, if any
}

// Error implements the error interface.
func (e *VMError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("vm %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("vm %s at %d: %s", e.Code, e.Offset, e.Message)
}

// Unwrap returns the underlying cause.
func (e *VMError) Unwrap() error { return e.Err }

// Is matches any *VMError with the same code.
func (e *VMError) Is(target error) bool {
	t, ok := target.(*VMError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrOutOfRange     = &VMError{Code: CodeOutOfRange, Offset: -1, Message: "out of range"}
	ErrTypeMismatch   = &VMError{Code: CodeTypeMismatch, Offset: -1, Message: "type mismatch"}
	ErrUnknownHint    = &VMError{Code: CodeUnknownHint, Offset: -1, Message: "unknown hint"}
	ErrUnresolvedJump = &VMError{Code: CodeUnresolvedJump, Offset: -1, Message: "unresolved jump"}
	ErrBadOpcode      = &VMError{Code: CodeBadOpcode, Offset: -1, Message: "bad opcode"}
)

func newError(code ErrorCode, offset int, format string, args ...any) *VMError {
	return &VMError{Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, offset int, err error) *VMError {
	return &VMError{Code: code, Offset: offset, Message: err.Error(), Err: err}
}

// errReturnSignal unwinds an early return. It never escapes Execute.
var errReturnSignal = errors.New("return signal")
