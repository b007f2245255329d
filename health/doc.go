// Package health reports whether the docs server can do its job.
//
// A Checker reports Healthy, Degraded or Unhealthy. The Aggregator runs
// registered checkers concurrently under a shared timeout and folds their
// results into one status. RegisterHandlers mounts the probe endpoints:
//
//	GET /healthz  liveness, always "OK"
//	GET /readyz   "OK", "DEGRADED" or 503 "UNHEALTHY"
//	GET /health   JSON with one entry per checker
//
// Built-in checkers cover the spec directory and the token signing key.
package health
