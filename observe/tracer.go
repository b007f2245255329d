package observe

import (
	"context"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RouteMeta describes a matched HTTP route for telemetry purposes.
type RouteMeta struct {
	Method string // HTTP method
	Route  string // Route pattern, e.g. /docs/{apiID}
	APIID  string // API identifier when the route carries one
}

// RouteName returns Route, or "unmatched" when empty.
func (m RouteMeta) RouteName() string {
	if m.Route == "" {
		return "unmatched"
	}
	return m.Route
}

// SpanName returns the span name for this route.
// Format: http.server.<route>
func (m RouteMeta) SpanName() string {
	return "http.server." + m.RouteName()
}

func (m RouteMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.RouteName()),
	}
	if m.Method != "" {
		attrs = append(attrs, attribute.String("http.method", m.Method))
	}
	if m.APIID != "" {
		attrs = append(attrs, attribute.String("api.id", m.APIID))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with per-request span management.
//
// The route is only known once the router has matched, so StartSpan opens
// the span and EndSpan names it.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a server span for an incoming request.
	StartSpan(ctx context.Context, method string) (context.Context, trace.Span)

	// EndSpan names the span after meta, records status and ends it.
	EndSpan(span trace.Span, meta RouteMeta, status int)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return newNoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, method string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "http.server",
		trace.WithAttributes(attribute.String("http.method", method)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, meta RouteMeta, status int) {
	span.SetName(meta.SpanName())
	span.SetAttributes(meta.attributes()...)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, "status "+strconv.Itoa(status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "http.server")
}

func (t *noopTracer) EndSpan(span trace.Span, _ RouteMeta, _ int) {
	span.End()
}
