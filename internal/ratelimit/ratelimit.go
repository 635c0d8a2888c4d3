// Package ratelimit provides token-bucket limiters built on golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fd1az/rangebet/internal/cache"
)

// Limiter wraps rate.Limiter with convenience methods.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter refilling requestsPerSecond tokens per second, holding up to burst.
func New(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
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

// Keyed holds one Limiter per key (for example a client address). Limiters idle
// for longer than the idle window are dropped and start over with a full bucket.
type Keyed struct {
	rps   float64
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters *cache.Cache[string, *Limiter]
}

// NewKeyed creates a Keyed limiter.
func NewKeyed(requestsPerSecond float64, burst int, idle time.Duration) *Keyed {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Keyed{
		rps:      requestsPerSecond,
		burst:    burst,
		idle:     idle,
		limiters: cache.New[string, *Limiter](idle),
	}
}

// Allow reports whether key may perform an event now.
func (k *Keyed) Allow(ctx context.Context, key string) bool {
	return k.get(ctx, key).Allow()
}

func (k *Keyed) get(ctx context.Context, key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.limiters.Get(ctx, key)
	if !ok {
		l = New(k.rps, k.burst)
	}
	// refresh the idle window on every use
	k.limiters.Set(ctx, key, l, k.idle)
	return l
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	return k.limiters.Len()
}

// Close stops the idle sweeper.
func (k *Keyed) Close() {
	k.limiters.Close()
}
