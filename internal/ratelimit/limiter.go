// Package ratelimit paces page fetches with a fixed inter-request delay.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces requests a fixed delay apart. The first request passes
// immediately; each subsequent one waits until the delay has elapsed since
// the previous grant. A zero or negative delay disables pacing.
type Limiter struct {
	mu      sync.RWMutex
	limiter *rate.Limiter
	delay   time.Duration
}

// NewLimiter creates a limiter granting one request per delay interval.
func NewLimiter(delay time.Duration) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(limitFor(delay), 1),
		delay:   delay,
	}
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// Wait blocks until the next request is allowed or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetDelay replaces the inter-request delay for subsequent grants.
func (l *Limiter) SetDelay(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delay = delay
	l.limiter.SetLimit(limitFor(delay))
}

// Delay returns the configured inter-request delay.
func (l *Limiter) Delay() time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.delay
}
