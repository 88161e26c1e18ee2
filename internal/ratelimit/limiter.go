// Package ratelimit paces launch ticks.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer releases one event per interval. The first Wait returns immediately;
// each following Wait blocks until the interval since the previous event has
// elapsed or ctx is done.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		limiter: rate.NewLimiter(limitFor(interval), 1),
	}
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// Wait blocks until the next event may happen.
//
// Unlike rate.Limiter.Wait it never fails early because the context deadline
// is closer than the next slot; it only returns an error once ctx is done, so
// callers can tell timeouts from cancellation through the context alone.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := p.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
