// Package ratelimit throttles anonymous callbacks from deployed sites.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrLimited = errors.New("rate_limited")

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// SiteKey buckets callbacks per site and client address.
func SiteKey(scope, ip string) string {
	return "breakeven:ratelimit:" + scope + ":" + ip
}

type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}

func validate(key string, rate float64, burst int) error {
	if key == "" {
		return errors.New("rate limiter key is empty")
	}
	if rate <= 0 {
		return errors.New("rate limiter rate must be positive")
	}
	if burst <= 0 {
		return errors.New("rate limiter burst must be positive")
	}
	return nil
}
