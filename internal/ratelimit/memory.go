package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/breakeven/internal/clock"
	"golang.org/x/time/rate"
)

const idleBucketTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. Buckets idle
// for longer than idleBucketTTL are dropped.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64
	burst     int
	clock     clock.Clock
	lastSweep time.Time
}

func NewMemoryLimiter(perSecond float64, burst int, clk clock.Clock) *MemoryLimiter {
	if clk == nil {
		clk = clock.System()
	}
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		rate:    perSecond,
		burst:   burst,
		clock:   clk,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	if err := validate(key, l.rate, l.burst); err != nil {
		return Result{}, err
	}

	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.rate), l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Result{Allowed: false, Limit: l.burst, RetryAfter: delay}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     l.burst,
		Remaining: int(b.limiter.TokensAt(now)),
	}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleBucketTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleBucketTTL {
			delete(l.buckets, key)
		}
	}
}
