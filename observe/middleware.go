package observe

import (
	"net/http"
	"time"
)

// RouteFunc reports the matched route for a request. It is called after the
// wrapped handler returns, once the router has filled in its context.
type RouteFunc func(r *http.Request) RouteMeta

// HTTPMiddleware wraps an http.Handler with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Handler() returns a handler safe for concurrent use.
//   - Context: the request context carries the server span.
//   - Ownership: responses pass through unchanged.
type HTTPMiddleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	route   RouteFunc
}

// NewHTTPMiddleware creates the middleware. A nil route falls back to the raw path.
func NewHTTPMiddleware(tracer Tracer, metrics Metrics, logger Logger, route RouteFunc) *HTTPMiddleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	if route == nil {
		route = func(r *http.Request) RouteMeta {
			return RouteMeta{Method: r.Method, Route: r.URL.Path}
		}
	}
	return &HTTPMiddleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		route:   route,
	}
}

// Handler wraps next.
func (m *HTTPMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.StartSpan(r.Context(), r.Method)
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		status := rec.Status()
		meta := m.route(r)

		m.tracer.EndSpan(span, meta, status)
		m.metrics.RecordRequest(ctx, meta, status, duration)

		fields := []Field{
			F("http.status_code", status),
			F("duration_ms", float64(duration.Microseconds())/1000),
			F("bytes", rec.bytes),
		}
		logger := m.logger.WithRoute(meta)
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", fields...)
		} else {
			logger.Info(ctx, "request completed", fields...)
		}
	})
}

// MiddlewareFromObserver creates an HTTPMiddleware and Metrics from an Observer.
func MiddlewareFromObserver(obs Observer, route RouteFunc) (*HTTPMiddleware, Metrics, error) {
	if obs == nil {
		return nil, nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, nil, err
	}

	return NewHTTPMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger(), route), metrics, nil
}

// statusRecorder captures the status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Status returns the written status, 200 when the handler wrote nothing.
func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
