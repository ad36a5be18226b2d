package process

import (
	"errors"
	"fmt"

	apperrors "github.com/kbukum/execkit/errors"
)

// ErrCommand is matched by every execution error returned by this package
// and by the usage errors of the tool builders.
var ErrCommand = errors.New("command error")

// ErrNotFound is the cause of a FailedError returned when the executable
// cannot be resolved.
var ErrNotFound = errors.New("executable not found")

// FailedError reports an invocation whose exit code was not accepted, or a
// command whose executable could not be resolved. A nil Stdout or Stderr
// means the stream was not captured because a handler consumed it.
type FailedError struct {
	Command  string
	ExitCode int
	Stdout   *string
	Stderr   *string
	// Err is the underlying cause, if any (ErrNotFound at construction).
	Err error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: exited with code %d", e.Command, e.ExitCode)
}

func (e *FailedError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCommand, e.Err}
	}
	return []error{ErrCommand}
}

// AppError maps the failure onto the structured error shape.
func (e *FailedError) AppError() *apperrors.AppError {
	if errors.Is(e.Err, ErrNotFound) {
		return apperrors.NotFound(e.Command, "").WithCause(e)
	}
	appErr := apperrors.CommandFailed(e.Command, e.ExitCode, e)
	if e.Stdout != nil {
		appErr.WithDetail("stdout", *e.Stdout)
	}
	if e.Stderr != nil {
		appErr.WithDetail("stderr", *e.Stderr)
	}
	return appErr
}

// MaxRetriesError is returned by the retrying entry point once every attempt
// failed. Last carries the diagnostic payload of the final attempt.
type MaxRetriesError struct {
	Attempts int
	Last     *FailedError
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.Attempts, e.Last)
}

func (e *MaxRetriesError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrCommand}
	}
	return []error{ErrCommand, e.Last}
}

// AppError maps the failure onto the structured error shape.
func (e *MaxRetriesError) AppError() *apperrors.AppError {
	var command string
	if e.Last != nil {
		command = e.Last.Command
	}
	return apperrors.MaxRetriesExceeded(command, e.Attempts, e)
}

// UsageError returns a usage error for invalid builder configuration.
// It matches ErrCommand.
func UsageError(format string, args ...any) *apperrors.AppError {
	return apperrors.Usage(fmt.Sprintf(format, args...)).WithCause(ErrCommand)
}

func strPtr(s string) *string { return &s }
