package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the engine tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("libcel")

// SpanManager handles trace span lifecycle around the two phases of a rule:
// compilation and evaluation.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCompileSpan starts a span covering the parse of one rule.
	StartCompileSpan(ctx context.Context, rule string) (context.Context, trace.Span)

	// StartEvalSpan starts a span covering one evaluation of a compiled
	// rule. Evaluation spans nest under whatever span is in ctx.
	StartEvalSpan(ctx context.Context, rule string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCompileSpan starts a span covering the parse of one rule.
func (m *otelSpanManager) StartCompileSpan(ctx context.Context, rule string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "libcel.compile",
		trace.WithAttributes(
			attribute.String("rule.name", rule),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartEvalSpan starts a span covering one evaluation of a compiled rule.
func (m *otelSpanManager) StartEvalSpan(ctx context.Context, rule string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "libcel.eval."+rule,
		trace.WithAttributes(
			attribute.String("rule.name", rule),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
