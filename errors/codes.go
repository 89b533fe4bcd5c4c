package errors

// ErrorCode represents a machine-readable classification of a remote-call error.
type ErrorCode string

// Transient errors (retryable)
const (
	// ErrCodeRateLimited indicates the remote service throttled the call.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeServer indicates a server-side failure (5xx).
	ErrCodeServer ErrorCode = "SERVER_ERROR"
	// ErrCodeNetwork indicates a connection-level failure (refused, reset, DNS).
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeTimeout indicates the call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Permanent errors (never retried)
const (
	// ErrCodeValidation indicates the request itself was malformed (4xx).
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeAuth indicates the call was rejected for credentials (401/403).
	ErrCodeAuth ErrorCode = "AUTH_ERROR"
	// ErrCodeNotFound indicates the remote resource does not exist (404).
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnknown indicates an unclassified failure.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// retryableCodes is the set of codes that are safe to retry.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimited: true,
	ErrCodeServer:      true,
	ErrCodeNetwork:     true,
	ErrCodeTimeout:     true,
}

// IsRetryableCode reports whether an error code is considered retryable.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
