// Package ratelimit throttles record processing.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative limit for no rate limiting.
func New(recordsPerSecond float64) *Limiter {
	if recordsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	// A burst of 1 spaces records evenly instead of letting a backlog through.
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(recordsPerSecond), 1)}
}

// Wait blocks until the next record may be processed.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Limit returns the configured rate, 0 meaning unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}

// Unlimited reports whether Wait never blocks.
func (l *Limiter) Unlimited() bool {
	return l.limiter.Limit() == rate.Inf
}
