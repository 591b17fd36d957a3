package sqlite

import (
	"errors"
	"fmt"
)

// Error is a failed engine operation. Detail holds the connection's last
// diagnostic message at the time of failure, so two failures with the same
// code from different statements can still be told apart.
type Error struct {
	Code   ResultCode
	Op     string // wrapper operation, e.g. "prepare" or "step"
	Detail string
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Code.Message()
	}
	if e.Op == "" {
		return fmt.Sprintf("sqlite: %s (%d): %s", e.Code.Name(), int(e.Code), msg)
	}
	return fmt.Sprintf("sqlite: %s: %s (%d): %s", e.Op, e.Code.Name(), int(e.Code), msg)
}

// Is reports whether target is a ResultCode matching e.Code (exactly or by
// primary class), or an *Error with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ResultCode:
		return e.Code.Is(t)
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

// CodeOf returns the result code carried by err. It returns CodeOK for nil
// and CodeError for errors that did not come from this package.
func CodeOf(err error) ResultCode {
	if err == nil {
		return CodeOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	var rc ResultCode
	if errors.As(err, &rc) {
		return rc
	}
	return CodeError
}

// IsRetryable reports whether err is lock contention (busy or locked).
func IsRetryable(err error) bool {
	return err != nil && CodeOf(err).Retryable()
}

func misuse(op, format string, args ...any) *Error {
	return &Error{Code: CodeMisuse, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func outOfRange(op, format string, args ...any) *Error {
	return &Error{Code: CodeRange, Op: op, Detail: fmt.Sprintf(format, args...)}
}
