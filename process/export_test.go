package process

import (
	"context"
	"time"
)

// WithSleep exposes the retry delay hook to external tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return withSleep(fn)
}
