package interfaces

import (
	"context"
	"time"
)

// CacheService is the subset of pkg/cache the repositories and services use.
type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// RunLocker serializes team-count runs across processes.
type RunLocker interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
	// Extend resets the ttl of a lock still held by owner. It returns false
	// when the lock was lost.
	Extend(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
}
