package resilience

import (
	"sync"
	"time"
)

// LimiterConfig configures a LoginLimiter.
type LimiterConfig struct {
	// Rate is the number of attempts regained per second.
	// Default: 0.2
	Rate float64

	// Burst is how many attempts a fresh key may make at once.
	// Default: 10
	Burst int

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// bucket is one key's token bucket.
type bucket struct {
	tokens      float64
	lastRefresh time.Time
}

// LoginLimiter is a keyed token-bucket rate limiter.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Memory: buckets that have refilled to Burst are evicted on sweep.
type LoginLimiter struct {
	config LimiterConfig

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewLoginLimiter creates a limiter.
func NewLoginLimiter(config LimiterConfig) *LoginLimiter {
	if config.Rate <= 0 {
		config.Rate = 0.2
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &LoginLimiter{
		config:    config,
		buckets:   make(map[string]*bucket),
		lastSweep: config.Now(),
	}
}

// Allow takes one token from key's bucket.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	l.sweepLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.config.Burst), lastRefresh: now}
		l.buckets[key] = b
	}
	l.refillLocked(b, now)

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// RetryAfter returns how long key must wait for its next token.
func (l *LoginLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return 0
	}
	l.refillLocked(b, l.config.Now())
	if b.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - b.tokens) / l.config.Rate * float64(time.Second))
}

func (l *LoginLimiter) refillLocked(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefresh)
	if elapsed <= 0 {
		return
	}
	b.lastRefresh = now
	b.tokens += elapsed.Seconds() * l.config.Rate
	if b.tokens > float64(l.config.Burst) {
		b.tokens = float64(l.config.Burst)
	}
}

// sweepLocked evicts full buckets at most once per refill period.
func (l *LoginLimiter) sweepLocked(now time.Time) {
	period := time.Duration(float64(l.config.Burst) / l.config.Rate * float64(time.Second))
	if now.Sub(l.lastSweep) < period {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		l.refillLocked(b, now)
		if b.tokens >= float64(l.config.Burst) {
			delete(l.buckets, key)
		}
	}
}
