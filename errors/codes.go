package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Execution errors
const (
	// ErrCodeCommandFailed indicates a child exited with a code outside the accepted set.
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"
	// ErrCodeMaxRetriesExceeded indicates a retried invocation failed on every attempt.
	ErrCodeMaxRetriesExceeded ErrorCode = "MAX_RETRIES_EXCEEDED"
	// ErrCodeNotFound indicates an executable could not be resolved.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Configuration errors
const (
	// ErrCodeUsage indicates a builder was configured incorrectly.
	ErrCodeUsage ErrorCode = "USAGE_ERROR"
	// ErrCodeInvalidArgument indicates an argument value outside the accepted domain.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeCommandFailed: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
