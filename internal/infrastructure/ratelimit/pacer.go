// Package ratelimit spaces successive upstream calls by a fixed delay.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer lets the first call through immediately and every following call
// at most once per delay.
type Pacer struct {
	delay   time.Duration
	limiter *rate.Limiter
}

func NewPacer(delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{
		delay:   delay,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *Pacer) Delay() time.Duration {
	return p.delay
}
