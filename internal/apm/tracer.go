package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for one instrumentation scope.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
}

// Span is the subset of trace.Span the application records into.
type Span interface {
	SetAttributes(values ...attribute.KeyValue)
	AddEvent(name string, options ...trace.EventOption)
	NoticeError(err error)
	End(options ...trace.SpanEndOption)
	SpanContext() trace.SpanContext
}

type openTracer struct {
	tracer trace.Tracer
}

// NewTracer resolves the tracer lazily through the global provider, so it
// picks up a provider installed after construction.
func NewTracer(name string) Tracer {
	return &openTracer{tracer: otel.Tracer(name)}
}

func (t *openTracer) StartSpanFromContext(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, traceSpan{span}
}

func (t *openTracer) SpanFromContext(ctx context.Context) Span {
	return traceSpan{trace.SpanFromContext(ctx)}
}

type traceSpan struct {
	trace.Span
}

// NoticeError records err and marks the span failed.
func (s traceSpan) NoticeError(err error) {
	if err == nil {
		return
	}
	s.RecordError(err)
	s.SetStatus(codes.Error, err.Error())
}

// TraceID returns the hex trace id of the span in ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
