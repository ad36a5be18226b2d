// Package observability provides OpenTelemetry tracing and metrics for
// external command invocations.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &observability.TracerConfig{...})
//	defer tp.Shutdown(ctx)
//
// WithSpanProcessor and WithMetricReader replace the OTLP exporters, for
// example with in-memory recorders.
//
// Every invocation is wrapped in an Invocation, which owns the
// process.invoke span and feeds the optional Metrics instruments:
//
//	inv := observability.NewInvocation("rsync", "/usr/bin/rsync", metrics)
//	ctx, span := inv.Start(ctx)
//	defer inv.End(ctx, span, exitCode, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{...})
//	defer mp.Shutdown(ctx)
//	metrics, err := observability.NewMetrics(observability.Meter("execkit"))
//
// Tool availability is reported through Health values.
package observability
