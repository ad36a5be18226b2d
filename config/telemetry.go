package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/subprocess"
)

// TelemetryConfig configures span and metric export.
type TelemetryConfig struct {
	Enabled bool                       `yaml:"enabled" mapstructure:"enabled"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// Telemetry holds the providers started by StartTelemetry. A disabled
// configuration yields a Telemetry with nil Metrics whose Shutdown does
// nothing.
type Telemetry struct {
	Metrics  *observability.Metrics
	shutdown []func(context.Context) error
}

// TelemetryOption customizes StartTelemetry.
type TelemetryOption func(*telemetryOptions)

type telemetryOptions struct {
	tracer []observability.TracerOption
	meter  []observability.MeterOption
}

// WithTracerOptions passes opts to observability.InitTracer.
func WithTracerOptions(opts ...observability.TracerOption) TelemetryOption {
	return func(o *telemetryOptions) { o.tracer = append(o.tracer, opts...) }
}

// WithMeterOptions passes opts to observability.InitMeter.
func WithMeterOptions(opts ...observability.MeterOption) TelemetryOption {
	return func(o *telemetryOptions) { o.meter = append(o.meter, opts...) }
}

// StartTelemetry installs the global tracer and meter providers when
// telemetry is enabled and creates the invocation metrics. Call Shutdown on
// the result before the host exits.
func (c *Config) StartTelemetry(ctx context.Context, opts ...TelemetryOption) (*Telemetry, error) {
	t := &Telemetry{}
	if !c.Telemetry.Enabled {
		return t, nil
	}
	var o telemetryOptions
	for _, opt := range opts {
		opt(&o)
	}

	tp, err := observability.InitTracer(ctx, &c.Telemetry.Tracing, o.tracer...)
	if err != nil {
		return nil, fmt.Errorf("starting tracer: %w", err)
	}
	t.shutdown = append(t.shutdown, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, &c.Telemetry.Metrics, o.meter...)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("starting meter: %w", err)
	}
	t.shutdown = append(t.shutdown, mp.Shutdown)

	t.Metrics, err = observability.NewMetrics(observability.Meter(c.Name))
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	return t, nil
}

// Shutdown flushes and stops the providers in reverse start order.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, t.shutdown[i](ctx))
	}
	t.shutdown = nil
	return errors.Join(errs...)
}

// CommandOptions returns the configured command options plus metric
// recording when telemetry is running. Pass them to any builder.
func (c *Config) CommandOptions(t *Telemetry) []process.Option {
	opts := c.Command.Options()
	if t != nil && t.Metrics != nil {
		opts = append(opts, process.WithMetrics(t.Metrics))
	}
	return opts
}

// LauncherOptions returns the subprocess options matching t.
func (t *Telemetry) LauncherOptions() []subprocess.Option {
	if t == nil || t.Metrics == nil {
		return nil
	}
	return []subprocess.Option{subprocess.WithMetrics(t.Metrics)}
}
