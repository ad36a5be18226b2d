package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/resilience"
	"github.com/kbukum/execkit/shellquote"
)

// shellPath is the interpreter used in shell mode.
const shellPath = "/bin/sh"

// Command is an external program resolved once and invoked any number of
// times. Each invocation is independent; a Command records only the outcome
// of its most recent one and is not safe for concurrent invocations.
type Command struct {
	name         string
	path         string
	args         []string
	shell        bool
	env          []string
	check        bool
	allowed      []int
	retryTimes   int
	retrySleep   time.Duration
	retryHandler func(attempt int, err error)
	outHandler   Handler
	errHandler   Handler
	log          *logger.Logger
	component    string
	processGroup bool
	signals      []os.Signal
	metrics      *observability.Metrics
	sleep        func(ctx context.Context, d time.Duration) error

	last *Result
}

// New resolves name and returns a Command. If the executable cannot be found
// a *FailedError wrapping ErrNotFound is returned and nothing is run.
func New(name string, opts ...Option) (*Command, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	component := o.component
	if component == "" {
		component = filepath.Base(name)
	}
	log := o.log
	if log == nil {
		log = logger.Get(component)
	} else {
		log = log.WithComponent(component)
	}

	c := &Command{
		name:         name,
		path:         name,
		args:         slices.Clone(o.args),
		shell:        o.shell,
		check:        o.check,
		allowed:      o.allowed,
		retryTimes:   o.retryTimes,
		retrySleep:   o.retrySleep,
		retryHandler: o.retryHandler,
		outHandler:   o.outHandler,
		errHandler:   o.errHandler,
		log:          log,
		component:    component,
		processGroup: o.processGroup,
		signals:      o.signals,
		metrics:      o.metrics,
		sleep:        o.sleep,
	}

	if !o.shell {
		path, ok := o.lookup(name, o.path)
		if !ok {
			log.Debug("executable not found", logger.Fields(logger.FieldCommand, name, "search_path", o.path))
			return nil, &FailedError{Command: name, Err: ErrNotFound}
		}
		c.path = path
	}
	c.env = buildEnv(o.environ, o.env, o.path)

	return c, nil
}

// Name returns the name the command was constructed with.
func (c *Command) Name() string { return c.name }

// Path returns the resolved executable, or the shell snippet in shell mode.
func (c *Command) Path() string { return c.path }

// Args returns a copy of the declared arguments.
func (c *Command) Args() []string { return slices.Clone(c.args) }

// Shell reports whether the command runs through /bin/sh -c.
func (c *Command) Shell() bool { return c.shell }

// Env returns the child environment, or nil when the ambient one is inherited.
func (c *Command) Env() []string { return slices.Clone(c.env) }

// Check reports whether the acceptance policy is enforced.
func (c *Command) Check() bool { return c.check }

// AllowedExitCodes returns the exit codes considered success.
func (c *Command) AllowedExitCodes() []int { return slices.Clone(c.allowed) }

// RetryTimes returns how many extra attempts GetOutputWithRetry makes.
func (c *Command) RetryTimes() int { return c.retryTimes }

// RetrySleep returns the fixed delay between attempts.
func (c *Command) RetrySleep() time.Duration { return c.retrySleep }

// Component returns the name the command logs under.
func (c *Command) Component() string { return c.component }

// Logger returns the component logger.
func (c *Command) Logger() *logger.Logger { return c.log }

// ExitCode returns the exit code of the last invocation.
func (c *Command) ExitCode() int {
	if c.last == nil {
		return 0
	}
	return c.last.ExitCode
}

// Stdout returns the stdout captured by the last invocation. ok is false
// when nothing was captured because a handler consumed the stream.
func (c *Command) Stdout() (out string, ok bool) {
	if c.last == nil || c.last.Stdout == nil {
		return "", false
	}
	return *c.last.Stdout, true
}

// Stderr returns the stderr captured by the last invocation.
func (c *Command) Stderr() (out string, ok bool) {
	if c.last == nil || c.last.Stderr == nil {
		return "", false
	}
	return *c.last.Stderr, true
}

// Argv returns the argument vector an invocation with extra would execute.
func (c *Command) Argv(extra ...string) []string {
	args := make([]string, 0, len(c.args)+len(extra))
	args = append(args, c.args...)
	args = append(args, extra...)
	if c.shell {
		return []string{shellPath, "-c", shellquote.Command(c.path, args...)}
	}
	return append([]string{c.path}, args...)
}

// Call runs the command once with args appended to the declared arguments.
// Output goes to the construction handlers, or is captured when none was set.
func (c *Command) Call(ctx context.Context, args ...string) (int, error) {
	res, err := c.run(ctx, invocation{
		out:  c.outHandler,
		err:  c.errHandler,
		args: args,
	})
	return res.ExitCode, err
}

// GetOutput runs the command once, feeding stdin if non-nil, and returns the
// captured stdout and stderr. Construction handlers still see every line.
//
// stdin is written in full before the output pipes are drained. A payload
// larger than the pipe buffer (64 KiB on Linux) can block forever when the
// child writes output before it has consumed its input.
func (c *Command) GetOutput(ctx context.Context, stdin []byte, args ...string) (string, string, error) {
	return c.getOutput(ctx, stdin, 1, args)
}

func (c *Command) getOutput(ctx context.Context, stdin []byte, attempt int, args []string) (string, string, error) {
	res, err := c.run(ctx, invocation{
		stdin:   stdin,
		out:     c.outHandler,
		err:     c.errHandler,
		capture: true,
		attempt: attempt,
		args:    args,
	})
	return res.stdout(), res.stderr(), err
}

// GetOutputWithRetry behaves like GetOutput but retries a *FailedError up to
// RetryTimes times, waiting RetrySleep between attempts. When every attempt
// fails it returns a *MaxRetriesError carrying the last failure.
func (c *Command) GetOutputWithRetry(ctx context.Context, stdin []byte, args ...string) (string, string, error) {
	if c.retryTimes <= 0 {
		return c.GetOutput(ctx, stdin, args...)
	}

	cfg := resilience.FixedRetryConfig(c.retryTimes+1, c.retrySleep)
	cfg.RetryIf = func(err error) bool {
		var failed *FailedError
		return errors.As(err, &failed)
	}
	cfg.Sleep = c.sleep
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Warn("command failed, retrying", logger.Fields(
			logger.FieldCommand, c.path,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"retry_in", delay.String(),
		))
		if c.metrics != nil {
			c.metrics.RecordRetry(ctx, c.component, attempt)
		}
		if c.retryHandler != nil {
			c.retryHandler(attempt, err)
		}
	}

	type output struct{ stdout, stderr string }
	attempts := 0
	res, err := resilience.Retry(ctx, cfg, func() (output, error) {
		attempts++
		out, errOut, err := c.getOutput(ctx, stdin, attempts, args)
		return output{out, errOut}, err
	})
	if err != nil {
		var failed *FailedError
		if errors.Is(err, resilience.ErrMaxRetriesExceeded) && errors.As(err, &failed) {
			c.log.Error("command failed, no retries left", logger.Fields(
				logger.FieldCommand, c.path,
				logger.FieldAttempt, attempts,
				logger.FieldExitCode, failed.ExitCode,
			))
			return deref(failed.Stdout), deref(failed.Stderr), &MaxRetriesError{Attempts: attempts, Last: failed}
		}
		return "", "", err
	}
	return res.stdout, res.stderr, nil
}

// Execute runs the command once, feeding stdin if non-nil. Output goes to the
// construction handlers, or else is logged: stdout at debug, stderr at warn.
// Nothing is captured. stdin has the same size limit as in GetOutput.
func (c *Command) Execute(ctx context.Context, stdin []byte, args ...string) (int, error) {
	out, errH := c.outHandler, c.errHandler
	if out == nil {
		out = LoggingHandler(c.log, zerolog.DebugLevel, "")
	}
	if errH == nil {
		errH = LoggingHandler(c.log, zerolog.WarnLevel, "")
	}
	res, err := c.run(ctx, invocation{
		stdin: stdin,
		out:   out,
		err:   errH,
		args:  args,
	})
	return res.ExitCode, err
}

type invocation struct {
	stdin    []byte
	out, err Handler
	// capture accumulates the streams even when handlers are set.
	capture bool
	attempt int
	args    []string
}

// run performs one invocation and applies the acceptance policy. It always
// returns a non-nil Result.
func (c *Command) run(ctx context.Context, inv invocation) (*Result, error) {
	c.last = nil
	if inv.attempt == 0 {
		inv.attempt = 1
	}

	var outBuf, errBuf *lineBuffer
	if inv.capture || inv.out == nil {
		outBuf = &lineBuffer{}
		inv.out = Tee(outBuf, inv.out)
	}
	if inv.capture || inv.err == nil {
		errBuf = &lineBuffer{}
		inv.err = Tee(errBuf, inv.err)
	}

	argv := c.Argv(inv.args...)
	obs := observability.NewInvocation(c.component, c.path, c.metrics)
	obs.Attempt = inv.attempt
	ctx, span := obs.Start(ctx)
	log := c.log.WithFields(logger.Fields(logger.FieldInvocationID, obs.ID))
	log.Debug("running command", logger.Fields(
		logger.FieldCommand, argv[0],
		logger.FieldArgs, argv[1:],
		logger.FieldAttempt, inv.attempt,
	))

	code, err := c.spawn(argv, inv, log)
	res := &Result{ExitCode: code, Duration: obs.Duration()}
	if err != nil {
		obs.End(ctx, span, observability.StatusError, code, err)
		return res, err
	}
	if outBuf != nil {
		res.Stdout = strPtr(outBuf.String())
	}
	if errBuf != nil {
		res.Stderr = strPtr(errBuf.String())
	}
	c.last = res

	log.Debug("command exited", logger.Fields(logger.FieldExitCode, code, logger.FieldDuration, res.Duration.Milliseconds()))

	if c.check && !slices.Contains(c.allowed, code) {
		failed := &FailedError{Command: c.path, ExitCode: code, Stdout: res.Stdout, Stderr: res.Stderr}
		obs.End(ctx, span, observability.StatusFailed, code, failed)
		return res, failed
	}
	obs.End(ctx, span, observability.StatusOK, code, nil)
	return res, nil
}

// spawn starts the child, feeds stdin, drains both output pipes and waits.
// Every descriptor is closed on every path.
func (c *Command) spawn(argv []string, inv invocation, log *logger.Logger) (int, error) {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return -1, fmt.Errorf("creating stdin pipe: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW)
		return -1, fmt.Errorf("creating stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW, outR, outW)
		return -1, fmt.Errorf("creating stderr pipe: %w", err)
	}

	cmd := &exec.Cmd{
		Path:        argv[0],
		Args:        argv,
		Env:         c.env,
		Stdin:       stdinR,
		Stdout:      outW,
		Stderr:      errW,
		SysProcAttr: &syscall.SysProcAttr{Setpgid: c.processGroup},
	}
	relay := relaySignals(c.signals)
	defer relay.stop()
	if err := cmd.Start(); err != nil {
		closeAll(stdinR, stdinW, outR, outW, errR, errW)
		return -1, fmt.Errorf("starting %s: %w", argv[0], err)
	}
	// The child holds its own copies now.
	closeAll(stdinR, outW, errW)

	log.Debug("command started", logger.Fields(logger.FieldPID, cmd.Process.Pid))
	relay.start(cmd.Process, log)

	var writeErr error
	if len(inv.stdin) > 0 {
		if _, err := stdinW.Write(inv.stdin); err != nil && !errors.Is(err, syscall.EPIPE) {
			writeErr = fmt.Errorf("writing stdin: %w", err)
		}
	}
	_ = stdinW.Close()

	outP := NewLineProcessor(outR, inv.out)
	errP := NewLineProcessor(errR, inv.err)
	drainErr := Drain(outP, errP)
	if drainErr != nil {
		outP.release()
		errP.release()
	}

	waitErr := cmd.Wait()
	code := exitCode(cmd.ProcessState)

	switch {
	case drainErr != nil:
		return code, drainErr
	case writeErr != nil:
		return code, writeErr
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return code, waitErr
	}
	return code, nil
}

// exitCode returns the exit status, or the negated signal number when the
// child was killed by a signal.
func exitCode(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return ps.ExitCode()
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
