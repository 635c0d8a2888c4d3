package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans wrapped in the Span helper.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	FromContext(ctx context.Context) Span
}

// Span is the subset of trace.Span the services use, plus Fail.
type Span interface {
	SetAttributes(kv ...attribute.KeyValue)
	AddEvent(name string, opts ...trace.EventOption)
	// Fail records err and marks the span as errored.
	Fail(err error)
	Succeed()
	TraceID() string
	End(opts ...trace.SpanEndOption)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the global provider.
func NewTracer(name string) Tracer {
	return &otelTracer{tracer: otel.Tracer(name)}
}

func (t *otelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &otelSpan{span: span}
}

func (t *otelTracer) FromContext(ctx context.Context) Span {
	return &otelSpan{span: trace.SpanFromContext(ctx)}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.span.SetAttributes(kv...)
}

func (s *otelSpan) AddEvent(name string, opts ...trace.EventOption) {
	s.span.AddEvent(name, opts...)
}

func (s *otelSpan) Fail(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) Succeed() {
	s.span.SetStatus(codes.Ok, "")
}

func (s *otelSpan) TraceID() string {
	sc := s.span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func (s *otelSpan) End(opts ...trace.SpanEndOption) {
	s.span.End(opts...)
}
