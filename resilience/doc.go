// Package resilience throttles repeated operations per client.
//
// LoginLimiter keeps one token bucket per key (usually the client address)
// so a single caller cannot hammer the demo login while others are served
// normally. Idle buckets are dropped once they have refilled.
//
//	limiter := resilience.NewLoginLimiter(resilience.LimiterConfig{Rate: 0.5, Burst: 5})
//	if !limiter.Allow(clientIP) {
//	    // reject with 429
//	}
package resilience
