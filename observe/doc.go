// Package observe provides logging, tracing and metrics for the docs server.
//
// NewObserver builds the OpenTelemetry providers from Config. HTTPMiddleware
// wraps the router so every request gets a span, request metrics and a
// completion log line. Access decisions are counted through Metrics.
package observe
