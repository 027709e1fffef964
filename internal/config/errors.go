package config

import (
	"errors"
	"fmt"
)

// Error is a configuration problem. It is always fatal to the command that
// hit it.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field names the offending option, if any.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes configuration errors.
type ErrorCode string

const (
	ErrCodeInvalidK         ErrorCode = "INVALID_K"
	ErrCodeInvalidKMin      ErrorCode = "INVALID_KMIN"
	ErrCodeInvalidKInc      ErrorCode = "INVALID_KINC"
	ErrCodeInvalidWorkers   ErrorCode = "INVALID_WORKERS"
	ErrCodeInvalidAlphabet  ErrorCode = "INVALID_ALPHABET"
	ErrCodeInvalidHeuristic ErrorCode = "INVALID_HEURISTIC"
	ErrCodeInvalidDownset   ErrorCode = "INVALID_DOWNSET"
	ErrCodeInvalidVectors   ErrorCode = "INVALID_VECTORS"

	// ErrCodeLoadFailed covers unreadable, ill-typed or unknown settings in
	// a config file or the environment.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"
)

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, msg, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsConfigError reports whether err is, or wraps, a configuration error.
func IsConfigError(err error) bool { return CodeOf(err) != "" }

// IsLoadError reports whether err came from reading a config source.
func IsLoadError(err error) bool { return CodeOf(err) == ErrCodeLoadFailed }

func invalid(code ErrorCode, field, format string, args ...any) *Error {
	return &Error{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func loadFailed(source string, err error) *Error {
	return &Error{Code: ErrCodeLoadFailed, Message: "loading " + source, Err: err}
}

// AlphabetError classifies an alphabet construction failure.
func AlphabetError(err error) *Error {
	return &Error{Code: ErrCodeInvalidAlphabet, Message: "bad proposition lists", Err: err}
}
