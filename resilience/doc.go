// Package resilience provides bounded retry for operations that can fail
// transiently.
//
// Retry runs a function up to MaxAttempts times, sleeping the same Delay
// between attempts, which is what whole-invocation retries of external
// tools use:
//
//	cfg := resilience.FixedRetryConfig(6, 5*time.Second)
//	cfg.RetryIf = func(err error) bool { return errors.As(err, &failed) }
//	out, err := resilience.Retry(ctx, cfg, func() (string, error) {
//	    return run()
//	})
//
// When every attempt fails the returned error matches both
// ErrMaxRetriesExceeded and the last error returned by the function.
package resilience
