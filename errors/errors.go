package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type for configuration and execution failures.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the message. The code is left out so usage errors read naturally.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// Usage creates an AppError for a builder that cannot be constructed as configured.
func Usage(message string) *AppError {
	return &AppError{Code: ErrCodeUsage, Message: message}
}

// InvalidArgument creates an AppError for an argument outside its accepted values.
func InvalidArgument(field, message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: message,
		Details: map[string]any{"field": field},
	}
}

// MissingField creates an AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// Validation creates an AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: message}
}

// NotFound creates an AppError for an executable that could not be resolved.
func NotFound(name, path string) *AppError {
	details := map[string]any{"command": name}
	if path != "" {
		details["path"] = path
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", name),
		Details: details,
	}
}

// CommandFailed creates an AppError for a child that exited outside the accepted set.
func CommandFailed(command string, exitCode int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCommandFailed, Message: fmt.Sprintf("%s exited with code %d", command, exitCode),
		Retryable: true, Cause: cause,
		Details: map[string]any{"command": command, "exit_code": exitCode},
	}
}

// MaxRetriesExceeded creates an AppError for a retried invocation that never succeeded.
func MaxRetriesExceeded(command string, attempts int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMaxRetriesExceeded, Message: fmt.Sprintf("%s failed after %d attempts", command, attempts),
		Cause:   cause,
		Details: map[string]any{"command": command, "attempts": attempts},
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
