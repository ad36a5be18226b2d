package process

import "time"

// Result holds the outcome of one invocation.
type Result struct {
	// ExitCode is the child's exit code, or the negated signal number if it was killed.
	ExitCode int
	// Stdout is the captured standard output, nil when a handler consumed it.
	Stdout *string
	// Stderr is the captured standard error, nil when a handler consumed it.
	Stderr *string
	// Duration is how long the child ran.
	Duration time.Duration
}

func (r *Result) stdout() string {
	if r == nil || r.Stdout == nil {
		return ""
	}
	return *r.Stdout
}

func (r *Result) stderr() string {
	if r == nil || r.Stderr == nil {
		return ""
	}
	return *r.Stderr
}
