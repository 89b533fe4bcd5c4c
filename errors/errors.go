// Package errors provides classified errors for outbound remote calls.
// It implements a structured error type carrying an error code, the HTTP
// status that produced it, a retryable flag, and an optional server-provided
// retry-after hint, so resilience policies can react per class.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// RemoteError is the unified classified error for a failed remote call.
type RemoteError struct {
	// Code is a machine-readable error classification.
	Code ErrorCode `json:"code"`
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int `json:"status_code,omitempty"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates whether the call can be retried.
	Retryable bool `json:"retryable"`
	// RetryAfter is a server-provided backoff hint. Zero means no hint.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *RemoteError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *RemoteError) WithCause(cause error) *RemoteError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *RemoteError) WithDetail(key string, value any) *RemoteError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a RemoteError with automatic retryable detection.
func New(code ErrorCode, message string) *RemoteError {
	return &RemoteError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// RateLimited creates an error for a throttled call. retryAfter is the
// server's backoff hint; pass 0 when the response carried none.
func RateLimited(retryAfter time.Duration) *RemoteError {
	return &RemoteError{
		Code: ErrCodeRateLimited, StatusCode: 429,
		Message: "rate limit exceeded", Retryable: true,
		RetryAfter: retryAfter,
	}
}

// ServerError creates an error for a 5xx response.
func ServerError(statusCode int) *RemoteError {
	return &RemoteError{
		Code: ErrCodeServer, StatusCode: statusCode,
		Message: fmt.Sprintf("server returned HTTP %d", statusCode), Retryable: true,
	}
}

// NetworkError creates an error for a connection-level failure.
func NetworkError(cause error) *RemoteError {
	return &RemoteError{
		Code: ErrCodeNetwork, Message: "connection failed",
		Retryable: true, Cause: cause,
	}
}

// Timeout creates an error for a call that exceeded its deadline.
func Timeout(operation string) *RemoteError {
	return &RemoteError{
		Code: ErrCodeTimeout, Message: "operation timed out",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// Validation creates an error for a malformed request. Validation errors are
// never retried and never treated as rate-limiter feedback.
func Validation(message string) *RemoteError {
	return &RemoteError{
		Code: ErrCodeValidation, StatusCode: 400,
		Message: message, Retryable: false,
	}
}

// AuthError creates an error for a 401/403 response.
func AuthError(statusCode int) *RemoteError {
	return &RemoteError{
		Code: ErrCodeAuth, StatusCode: statusCode,
		Message: fmt.Sprintf("authentication rejected (HTTP %d)", statusCode), Retryable: false,
	}
}

// NotFound creates an error for a 404 response.
func NotFound(resource string) *RemoteError {
	return &RemoteError{
		Code: ErrCodeNotFound, StatusCode: 404,
		Message: fmt.Sprintf("%s not found", resource), Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// FromStatusCode converts an HTTP status code into a classified error.
// Returns nil for 2xx codes. retryAfter is applied only to 429 responses.
func FromStatusCode(statusCode int, retryAfter time.Duration) *RemoteError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 401 || statusCode == 403:
		return AuthError(statusCode)
	case statusCode == 404:
		return NotFound("resource")
	case statusCode == 429:
		return RateLimited(retryAfter)
	case statusCode >= 400 && statusCode < 500:
		return &RemoteError{
			Code: ErrCodeValidation, StatusCode: statusCode,
			Message: fmt.Sprintf("rejected with HTTP %d", statusCode), Retryable: false,
		}
	case statusCode >= 500:
		return ServerError(statusCode)
	default:
		return &RemoteError{
			Code: ErrCodeUnknown, StatusCode: statusCode,
			Message: fmt.Sprintf("unexpected HTTP %d", statusCode), Retryable: false,
		}
	}
}

// --- Inspection helpers ---

// AsRemoteError extracts a RemoteError from an error chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsRetryable reports whether an error is safe to retry. Unclassified errors
// are treated as retryable network-level failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if re, ok := AsRemoteError(err); ok {
		return re.Retryable
	}
	return true
}

// IsRateLimited reports whether an error is a rate-limit rejection.
func IsRateLimited(err error) bool {
	re, ok := AsRemoteError(err)
	return ok && re.Code == ErrCodeRateLimited
}

// IsValidation reports whether an error is a validation failure.
func IsValidation(err error) bool {
	re, ok := AsRemoteError(err)
	return ok && re.Code == ErrCodeValidation
}

// RetryAfterHint returns the server-provided backoff hint carried by an
// error, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	if re, ok := AsRemoteError(err); ok && re.RetryAfter > 0 {
		return re.RetryAfter, true
	}
	return 0, false
}
