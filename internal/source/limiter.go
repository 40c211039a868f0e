package source

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces HTTP fetches.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter uses 0 or negative for no rate limiting.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	// burst of 1: the first request goes out immediately, later ones wait
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// Wait blocks until a request may be made or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns requests per second, 0 when unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
