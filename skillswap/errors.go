package skillswap

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Recoverable local outcomes. The caller may retry the triggering
	// action; none of these terminate the session.
	ErrorConnectionLost
	ErrorSendFailed
	ErrorFetchFailed
	ErrorJoinSkipped

	// Client-side validation and plumbing.
	ErrorEmptyMessage
	ErrorInvalidConfig
	ErrorSerialization

	// Protocol errors reported by the server.
	ErrorUnauthorized
	ErrorBadRequest
	ErrorNotFound
	ErrorRateLimited
	ErrorInternalServer
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorConnectionLost:
		return "connection_lost"
	case ErrorSendFailed:
		return "send_failed"
	case ErrorFetchFailed:
		return "fetch_failed"
	case ErrorJoinSkipped:
		return "join_skipped"
	case ErrorEmptyMessage:
		return "empty_message"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorBadRequest:
		return "bad_request"
	case ErrorNotFound:
		return "not_found"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorInternalServer:
		return "internal_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts a protocol error code string to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "unauthorized":
		return ErrorUnauthorized
	case "bad_request":
		return ErrorBadRequest
	case "not_found":
		return ErrorNotFound
	case "rate_limited":
		return ErrorRateLimited
	case "internal_error":
		return ErrorInternalServer
	default:
		return ErrorUnknown
	}
}

// Error is a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a coded Error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Wrapped: err}
}

// FromProtocolError converts a server ProtocolError to an Error.
func FromProtocolError(e *ProtocolError) *Error {
	if e == nil {
		return nil
	}
	return &Error{Code: ParseErrorCode(e.Code), Message: e.Msg}
}

// CodeOf extracts the ErrorCode from err, or ErrorUnknown.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrorUnknown
}

// IsRecoverable reports whether err is one of the local outcomes the
// caller may simply retry.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case ErrorConnectionLost, ErrorSendFailed, ErrorFetchFailed, ErrorJoinSkipped:
		return true
	default:
		return false
	}
}
