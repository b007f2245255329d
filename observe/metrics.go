package observe

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricRequests  = "docuapi.http.requests"
	MetricErrors    = "docuapi.http.errors"
	MetricDuration  = "docuapi.http.duration_ms"
	MetricDecisions = "docuapi.access.decisions"
)

// Metrics records request and access-decision metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one served request. Status >= 500 counts as an error.
	RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration)

	// RecordDecision counts one access decision.
	RecordDecision(ctx context.Context, apiID, variant, dispatch string)
}

type metricsImpl struct {
	requests     metric.Int64Counter
	errors       metric.Int64Counter
	durationHist metric.Float64Histogram
	decisions    metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	requests, err := meter.Int64Counter(
		MetricRequests,
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errCount, err := meter.Int64Counter(
		MetricErrors,
		metric.WithDescription("Total number of HTTP requests answered with a server error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricDuration,
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	decisions, err := meter.Int64Counter(
		MetricDecisions,
		metric.WithDescription("Access decisions by variant and dispatch"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		requests:     requests,
		errors:       errCount,
		durationHist: durationHist,
		decisions:    decisions,
	}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, meta RouteMeta, status int, duration time.Duration) {
	attrs := append(meta.attributes(), attribute.Int("http.status_code", status))
	opt := metric.WithAttributes(attrs...)

	m.requests.Add(ctx, 1, opt)
	if status >= http.StatusInternalServerError {
		m.errors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordDecision(ctx context.Context, apiID, variant, dispatch string) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("api.id", apiID),
		attribute.String("access.variant", variant),
		attribute.String("access.dispatch", dispatch),
	))
}

type noopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordRequest(context.Context, RouteMeta, int, time.Duration) {}
func (noopMetrics) RecordDecision(context.Context, string, string, string)       {}
