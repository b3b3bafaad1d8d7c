// Package ratelimit provides a keyed token bucket limiter for outbound calls.
// Each source gets its own bucket; sources may be given individual rates.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter manages per-key rate limiting.
type KeyedRateLimiter struct {
	mu        sync.RWMutex
	limiters  map[string]*rate.Limiter
	overrides map[string]rate.Limit
	limit     rate.Limit
	burst     int
}

// New creates a keyed limiter whose keys default to rps requests per second
// with the given burst. A non-positive rps disables limiting.
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		overrides: make(map[string]rate.Limit),
		limit:     toLimit(rps),
		burst:     max(burst, 1),
	}
}

// SetRate overrides the rate for one key. Existing buckets are adjusted in place.
func (krl *KeyedRateLimiter) SetRate(key string, rps float64) {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	krl.overrides[key] = toLimit(rps)
	if l, ok := krl.limiters[key]; ok {
		l.SetLimit(toLimit(rps))
	}
}

// Allow reports whether a request for key may happen now. Never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is canceled.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.RLock()
	limiter, exists := krl.limiters[key]
	krl.mu.RUnlock()
	if exists {
		return limiter
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()

	if limiter, exists = krl.limiters[key]; exists {
		return limiter
	}

	limit := krl.limit
	if l, ok := krl.overrides[key]; ok {
		limit = l
	}
	limiter = rate.NewLimiter(limit, krl.burst)
	krl.limiters[key] = limiter
	return limiter
}

func toLimit(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}
