package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCompile records one rule compilation with its duration and
	// error status.
	RecordCompile(ctx context.Context, rule string, duration time.Duration, err error)

	// RecordEvaluation records one evaluation of a compiled rule.
	RecordEvaluation(ctx context.Context, rule string, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	compiles       metric.Int64Counter
	compileLatency metric.Float64Histogram
	compileErrors  metric.Int64Counter
	evaluations    metric.Int64Counter
	evalLatency    metric.Float64Histogram
	evalErrors     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("libcel")

	compiles, err := meter.Int64Counter("libcel.compiles",
		metric.WithDescription("Number of rule compilations"),
	)
	if err != nil {
		return nil, err
	}

	compileLatency, err := meter.Float64Histogram("libcel.compile.latency_ms",
		metric.WithDescription("Rule compilation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	compileErrors, err := meter.Int64Counter("libcel.compile.errors",
		metric.WithDescription("Number of failed rule compilations"),
	)
	if err != nil {
		return nil, err
	}

	evaluations, err := meter.Int64Counter("libcel.evaluations",
		metric.WithDescription("Number of rule evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("libcel.eval.latency_ms",
		metric.WithDescription("Rule evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("libcel.eval.errors",
		metric.WithDescription("Number of failed rule evaluations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		compiles:       compiles,
		compileLatency: compileLatency,
		compileErrors:  compileErrors,
		evaluations:    evaluations,
		evalLatency:    evalLatency,
		evalErrors:     evalErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordCompile records one rule compilation.
func (m *otelMetrics) RecordCompile(ctx context.Context, rule string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("rule", rule),
	}

	m.compiles.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.compileLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.compileErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordEvaluation records one evaluation of a compiled rule.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, rule string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("rule", rule),
	}

	m.evaluations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
