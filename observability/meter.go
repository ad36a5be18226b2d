package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/execkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// MeterOption customizes the provider built by InitMeter.
type MeterOption func(*meterOptions)

type meterOptions struct {
	reader sdkmetric.Reader
}

// WithMetricReader collects metrics through r instead of the periodic OTLP
// exporter.
func WithMetricReader(r sdkmetric.Reader) MeterOption {
	return func(o *meterOptions) { o.reader = r }
}

// InitMeter installs a global meter provider for invocation metrics.
// The caller shuts the provider down on exit.
func InitMeter(ctx context.Context, config *MeterConfig, opts ...MeterOption) (*sdkmetric.MeterProvider, error) {
	var o meterOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.reader == nil {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
		if config.Insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		var readerOpts []sdkmetric.PeriodicReaderOption
		if config.Interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
		}
		o.reader = sdkmetric.NewPeriodicReader(exporter, readerOpts...)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(o.reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded for command invocations.
type Metrics struct {
	invocationTotal    metric.Int64Counter
	invocationDuration metric.Float64Histogram
	invocationActive   metric.Int64UpDownCounter
	failureTotal       metric.Int64Counter
	retryTotal         metric.Int64Counter
	launchTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	invocationTotal, err := meter.Int64Counter("process.invocations",
		metric.WithDescription("Total number of command invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.invocations counter: %w", err)
	}

	invocationDuration, err := meter.Float64Histogram("process.invocation.duration",
		metric.WithDescription("Duration of command invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.invocation.duration histogram: %w", err)
	}

	invocationActive, err := meter.Int64UpDownCounter("process.invocations.active",
		metric.WithDescription("Number of child processes currently being drained"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.invocations.active gauge: %w", err)
	}

	failureTotal, err := meter.Int64Counter("process.failures",
		metric.WithDescription("Invocations whose exit code was not accepted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.failures counter: %w", err)
	}

	retryTotal, err := meter.Int64Counter("process.retries",
		metric.WithDescription("Retries issued after a failed invocation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.retries counter: %w", err)
	}

	launchTotal, err := meter.Int64Counter("process.launches",
		metric.WithDescription("Detached subprocesses started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.launches counter: %w", err)
	}

	return &Metrics{
		invocationTotal:    invocationTotal,
		invocationDuration: invocationDuration,
		invocationActive:   invocationActive,
		failureTotal:       failureTotal,
		retryTotal:         retryTotal,
		launchTotal:        launchTotal,
	}, nil
}

// RecordInvocationStart increments the active invocation count.
func (m *Metrics) RecordInvocationStart(ctx context.Context, component string) {
	m.invocationActive.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}

// RecordInvocationEnd decrements active invocations and records the completed one.
func (m *Metrics) RecordInvocationEnd(ctx context.Context, component, command, status string, duration time.Duration) {
	m.invocationActive.Add(ctx, -1, metric.WithAttributes(attribute.String("component", component)))
	m.invocationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("command", command),
		attribute.String("status", status),
	))
	m.invocationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("command", command),
	))
}

// RecordFailure records an invocation that ended with a rejected exit code.
func (m *Metrics) RecordFailure(ctx context.Context, component string, exitCode int) {
	m.failureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.Int("exit_code", exitCode),
	))
}

// RecordRetry records a retry about to be issued.
func (m *Metrics) RecordRetry(ctx context.Context, component string, attempt int) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.Int("attempt", attempt),
	))
}

// RecordLaunch records a detached subprocess start.
func (m *Metrics) RecordLaunch(ctx context.Context, component string) {
	m.launchTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}
