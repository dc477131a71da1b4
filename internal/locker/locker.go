// Package locker provides short-lived exclusive locks keyed by string.
package locker

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyKey   = errors.New("lock key is empty")
	ErrInvalidTTL = errors.New("lock ttl must be positive")
)

type Locker interface {
	// TryLock returns a release token and true when the lock was acquired.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

// PublishKey is the lock guarding publish and update for one owner.
func PublishKey(ownerID string) string {
	return "breakeven:publish:" + ownerID
}

// JobKey keeps a background job to one instance at a time.
func JobKey(job string) string {
	return "breakeven:job:" + job
}
