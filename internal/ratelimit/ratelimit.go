// Package ratelimit wraps golang.org/x/time/rate for outbound API quotas.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces calls against an external quota.
type Limiter struct {
	limiter *rate.Limiter
}

// PerSecond creates a limiter allowing rps requests per second with a burst
// equal to the per-second allowance (Etherscan style quotas).
func PerSecond(rps float64) *Limiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return NewWithBurst(rps, burst)
}

// NewWithBurst creates a new rate limiter with explicit burst.
// A non-positive rps disables limiting.
func NewWithBurst(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the current number of available tokens.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}
