package core

import (
	"context"
	"time"
)

// Clock supplies timestamps for createdAt, updatedAt and memo expiry.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Logger is the structured logging surface used by the repository and the
// derived-set managers. Args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder receives one observation per public operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// CacheRecorder is implemented by recorders that also count memo hits.
type CacheRecorder interface {
	ObserveCache(hit bool)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts a span per operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the operation's error, nil on success.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// instrument runs fn inside a span and records its outcome.
func (o *options) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	o.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	span.End(err)
	return err
}

func (o *options) observeCache(hit bool) {
	if cr, ok := o.metrics.(CacheRecorder); ok {
		cr.ObserveCache(hit)
	}
}
