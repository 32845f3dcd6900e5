package domain

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// Code is the closed taxonomy of error classes surfaced by the pipeline.
// It reuses grpc's code space as a canonical vocabulary rather than
// inventing a parallel one, even though this module speaks HTTP/JSON to
// its LLM backends, not gRPC.
type Code int

const (
	CodeUnknown Code = iota
	CodeConfigInvalid
	CodeDetectionTransport
	CodeDetectionParse
	CodeGenerationFailed
	CodeStale
	CodeListenerPanic
)

func (c Code) String() string {
	switch c {
	case CodeConfigInvalid:
		return "config_invalid"
	case CodeDetectionTransport:
		return "detection_transport"
	case CodeDetectionParse:
		return "detection_parse"
	case CodeGenerationFailed:
		return "generation_failed"
	case CodeStale:
		return "stale"
	case CodeListenerPanic:
		return "listener_panic"
	default:
		return "unknown"
	}
}

// grpcCodeMap picks a sensible grpc code for each class, used only if
// this module's errors ever need to cross a future gRPC boundary (none
// exists today).
var grpcCodeMap = map[Code]codes.Code{
	CodeUnknown:            codes.Unknown,
	CodeConfigInvalid:      codes.InvalidArgument,
	CodeDetectionTransport: codes.Unavailable,
	CodeDetectionParse:     codes.InvalidArgument,
	CodeGenerationFailed:   codes.Internal,
	CodeStale:              codes.DeadlineExceeded,
	CodeListenerPanic:      codes.Internal,
}

// Error is the module's structured error type.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// GRPCCode returns the canonical grpc code for this error's class.
func (e *Error) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// New creates an Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a Code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata attaches a key/value pair and returns the error for chaining.
func (e *Error) WithMetadata(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	if appErr, ok := err.(*Error); ok {
		return appErr.Code == code
	}
	return false
}

// IsRetryable reports whether err is worth retrying at the adapter
// boundary. internal/resilience does not call it; its default
// classifier is its own IsRetryableHTTP.
func IsRetryable(err error) bool {
	appErr, ok := err.(*Error)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeDetectionTransport:
		return true
	default:
		return false
	}
}

// ErrMissingTimestamp is returned by the decision engine's history
// update when a comment arrives without a media-time anchor: callers
// must require and validate it, never fall back to wall-clock time.
var ErrMissingTimestamp = New(CodeConfigInvalid, "comment metadata.timestamp is required")
