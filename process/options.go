package process

import (
	"context"
	"os"
	"time"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
)

// Option configures a Command at construction.
type Option func(*options)

type options struct {
	shell        bool
	args         []string
	env          map[string]string
	path         string
	retryTimes   int
	retrySleep   time.Duration
	retryHandler func(attempt int, err error)
	outHandler   Handler
	errHandler   Handler
	check        bool
	allowed      []int
	lookup       LookupFunc
	environ      func() []string
	log          *logger.Logger
	component    string
	processGroup bool
	signals      []os.Signal
	metrics      *observability.Metrics
	sleep        func(ctx context.Context, d time.Duration) error
}

func defaultOptions() options {
	return options{
		allowed:      []int{0},
		lookup:       Which,
		environ:      os.Environ,
		processGroup: true,
	}
}

// WithShell runs the command through /bin/sh -c. The name is used verbatim
// as a shell snippet and every argument is quoted.
func WithShell() Option {
	return func(o *options) { o.shell = true }
}

// WithArgs sets the declared arguments placed before call-time arguments.
func WithArgs(args ...string) Option {
	return func(o *options) { o.args = append(o.args, args...) }
}

// WithEnv adds variables to a snapshot of the ambient environment.
func WithEnv(env map[string]string) Option {
	return func(o *options) {
		if o.env == nil {
			o.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.env[k] = v
		}
	}
}

// WithPath sets the search path used to resolve the executable. It also
// becomes the child's PATH.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithRetry sets how many extra attempts GetOutputWithRetry makes and the
// fixed delay between them.
func WithRetry(times int, sleep time.Duration) Option {
	return func(o *options) {
		o.retryTimes = times
		o.retrySleep = sleep
	}
}

// WithRetryHandler registers a function called before every retry.
func WithRetryHandler(fn func(attempt int, err error)) Option {
	return func(o *options) { o.retryHandler = fn }
}

// WithOutHandler delivers stdout lines to h instead of capturing them.
func WithOutHandler(h Handler) Option {
	return func(o *options) { o.outHandler = h }
}

// WithErrHandler delivers stderr lines to h instead of capturing them.
func WithErrHandler(h Handler) Option {
	return func(o *options) { o.errHandler = h }
}

// WithCheck enables the acceptance policy: exit codes outside the allowed set
// return a *FailedError.
func WithCheck(check bool) Option {
	return func(o *options) { o.check = check }
}

// WithAllowedExitCodes replaces the accepted exit codes (default 0).
func WithAllowedExitCodes(codes ...int) Option {
	return func(o *options) { o.allowed = append([]int(nil), codes...) }
}

// WithLookup replaces the executable resolution function.
func WithLookup(fn LookupFunc) Option {
	return func(o *options) { o.lookup = fn }
}

// WithEnviron replaces the source of the ambient environment snapshot.
func WithEnviron(fn func() []string) Option {
	return func(o *options) { o.environ = fn }
}

// WithLogger sets the logger. It is tagged with the command's component.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithComponent sets the name the command logs and reports metrics under.
// Defaults to the base name of the executable.
func WithComponent(name string) Option {
	return func(o *options) { o.component = name }
}

// WithProcessGroup controls whether the child gets its own process group.
func WithProcessGroup(enabled bool) Option {
	return func(o *options) { o.processGroup = enabled }
}

// WithSignalForwarding relays the given signals to the child while it runs.
func WithSignalForwarding(sigs ...os.Signal) Option {
	return func(o *options) { o.signals = append(o.signals, sigs...) }
}

// WithMetrics records invocation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// withSleep replaces the retry delay function.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) { o.sleep = fn }
}
