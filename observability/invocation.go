package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Invocation statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusError  = "error"
)

// Invocation holds observability state for one run of a child process.
type Invocation struct {
	ID        string
	Component string
	Command   string
	Attempt   int
	StartTime time.Time
	Metrics   *Metrics
}

// NewInvocation creates an invocation with a fresh id.
// If metrics is nil, metric recording is silently skipped.
func NewInvocation(component, command string, metrics *Metrics) *Invocation {
	return &Invocation{
		ID:        uuid.NewString(),
		Component: component,
		Command:   command,
		Attempt:   1,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type invocationKey struct{}

// WithInvocation stores an Invocation in the context.
func WithInvocation(ctx context.Context, inv *Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext retrieves the Invocation from context, or nil.
func InvocationFromContext(ctx context.Context) *Invocation {
	if inv, ok := ctx.Value(invocationKey{}).(*Invocation); ok {
		return inv
	}
	return nil
}

// Start opens the process.invoke span and records the start metric.
func (inv *Invocation) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanProcessInvoke)
	span.SetAttributes(
		attribute.String(AttrCommand, inv.Command),
		attribute.String(AttrComponent, inv.Component),
		attribute.String(AttrInvocationID, inv.ID),
		attribute.Int(AttrAttempt, inv.Attempt),
	)
	if inv.Metrics != nil {
		inv.Metrics.RecordInvocationStart(ctx, inv.Component)
	}
	return WithInvocation(ctx, inv), span
}

// End closes the span and records completion. status is one of StatusOK,
// StatusFailed (child ran, exit code rejected) or StatusError (child could
// not be run or drained).
func (inv *Invocation) End(ctx context.Context, span trace.Span, status string, exitCode int, err error) {
	duration := time.Since(inv.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.Int(AttrExitCode, exitCode),
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if inv.Metrics == nil {
		return
	}
	inv.Metrics.RecordInvocationEnd(ctx, inv.Component, inv.Command, status, duration)
	if status == StatusFailed {
		inv.Metrics.RecordFailure(ctx, inv.Component, exitCode)
	}
}

// Duration returns the elapsed time since the invocation started.
func (inv *Invocation) Duration() time.Duration {
	return time.Since(inv.StartTime)
}
