package server

import (
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// IPLimiter keeps one token bucket per client key.
//
// A non-positive rate disables limiting.
type IPLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewIPLimiter creates a limiter refilling ratePerSec tokens per second up to burst.
func NewIPLimiter(ratePerSec float64, burst int) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(ratePerSec),
		burst:    burst,
	}
}

// Allow reports whether key may make a request now and consumes a token if so.
func (l *IPLimiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter.Allow()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists = l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

// RetryAfterSeconds is the time for one token to refill, rounded up.
func (l *IPLimiter) RetryAfterSeconds() int {
	if l == nil || l.limit <= 0 {
		return 0
	}
	return int(math.Ceil(1 / float64(l.limit)))
}

// Len returns the number of tracked clients.
func (l *IPLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}
