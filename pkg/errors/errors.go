// Package errors provides structured error types for the whiteboard engine.
//
// Errors carry a machine-readable [Code] so callers can branch on the failure
// category without string matching:
//   - INVALID_* / UNKNOWN_*: malformed element payloads or messages
//   - UNAUTHORIZED: board access denied (a state transition for clients)
//   - LOAD_FAILURE, BOARD_NOT_FOUND, STORE: persistence collaborator failures
//   - TRANSPORT: channel connection problems
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidElementType, "unknown element type %q", typ)
//	if errors.Is(err, errors.ErrCodeInvalidElementType) {
//	    // reject the payload
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLoadFailure, origErr, "load board %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Payload errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidElementType Code = "INVALID_ELEMENT_TYPE"
	ErrCodeUnknownElementType Code = "UNKNOWN_ELEMENT_TYPE"
	ErrCodeInvalidElement     Code = "INVALID_ELEMENT"
	ErrCodeInvalidMessage     Code = "INVALID_MESSAGE"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"

	// Board access
	ErrCodeUnauthorized  Code = "UNAUTHORIZED"
	ErrCodeBoardNotFound Code = "BOARD_NOT_FOUND"

	// Collaborators
	ErrCodeLoadFailure Code = "LOAD_FAILURE"
	ErrCodeStore       Code = "STORE"
	ErrCodeTransport   Code = "TRANSPORT"
	ErrCodeNetwork     Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// A joined error matches if any of its members matches.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
