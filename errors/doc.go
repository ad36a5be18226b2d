// Package errors provides the structured error type shared by execkit packages.
//
// Execution failures themselves are typed in package process ([process.FailedError],
// [process.MaxRetriesError]); this package gives them, and the usage errors raised by
// tool builders, a common machine-readable shape with a code and a retryable flag.
package errors
