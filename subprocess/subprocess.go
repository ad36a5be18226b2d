// Package subprocess launches detached copies of the host program to run a
// subcommand in the background. The child gets its own session, so it
// survives the parent, and its standard streams are bound to /dev/null.
package subprocess

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"syscall"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
)

// Component is the name launches log under.
const Component = "subprocess"

// Config holds the launcher settings a host reads from its configuration file.
type Config struct {
	// Interpreter runs Program when it is a script. Empty for binaries.
	Interpreter string `yaml:"interpreter" mapstructure:"interpreter"`
	// Program is the host program. Defaults to the running executable.
	Program string `yaml:"program" mapstructure:"program"`
	// ConfigPath is passed to the child with -c.
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger sets the logger. It is tagged with the subprocess component.
func WithLogger(l *logger.Logger) Option {
	return func(s *Launcher) { s.log = l.WithComponent(Component) }
}

// WithMetrics records a launch metric for every started child.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Launcher) { s.metrics = m }
}

// WithLookup replaces the resolution of the interpreter.
func WithLookup(fn process.LookupFunc) Option {
	return func(s *Launcher) { s.lookup = fn }
}

// Launcher starts the host program detached with a subcommand.
type Launcher struct {
	argv    []string
	log     *logger.Logger
	metrics *observability.Metrics
	lookup  process.LookupFunc
}

// New returns a launcher running
//
//	[interpreter] <program> -c <config> -q <subcommand> [args...]
//
// A missing configuration path is a usage error.
func New(cfg Config, subcommand string, args []string, opts ...Option) (*Launcher, error) {
	s := &Launcher{
		log:    logger.Get(Component),
		lookup: process.Which,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.ConfigPath == "" {
		return nil, process.UsageError("No configuration file passed to the %s subprocess", subcommand)
	}
	program := cfg.Program
	if program == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating host program: %w", err)
		}
		program = exe
	}

	var argv []string
	if cfg.Interpreter != "" {
		path, ok := s.lookup(cfg.Interpreter, "")
		if !ok {
			return nil, &process.FailedError{Command: cfg.Interpreter, Err: process.ErrNotFound}
		}
		argv = append(argv, path)
	}
	argv = append(argv, program, "-c", cfg.ConfigPath, "-q", subcommand)
	s.argv = append(argv, args...)
	return s, nil
}

// Argv returns the argument vector of the child.
func (s *Launcher) Argv() []string { return slices.Clone(s.argv) }

// Execute starts the child and returns its pid without waiting for it. The
// child is reaped in the background once it exits.
func (s *Launcher) Execute(ctx context.Context) (int, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProcessLaunch)
	defer span.End()
	span.SetAttributes(
		attribute.String(observability.AttrComponent, Component),
		attribute.String(observability.AttrCommand, s.argv[0]),
	)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return 0, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := &exec.Cmd{
		Path:        s.argv[0],
		Args:        s.argv,
		Stdin:       devNull,
		Stdout:      devNull,
		Stderr:      devNull,
		SysProcAttr: &syscall.SysProcAttr{Setsid: true},
	}
	if err := cmd.Start(); err != nil {
		observability.SetSpanError(ctx, err)
		return 0, fmt.Errorf("starting %s: %w", s.argv[0], err)
	}
	pid := cmd.Process.Pid
	span.SetAttributes(attribute.Int(observability.AttrPID, pid))
	s.log.Debug("subprocess started", logger.Fields(logger.FieldArgs, s.argv, logger.FieldPID, pid))
	if s.metrics != nil {
		s.metrics.RecordLaunch(ctx, Component)
	}

	// Setsid leaves this process as the parent, so the child is reaped here.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
