package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	// Get returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Generation returns the invalidation counter of key, 0 if it was never invalidated.
	Generation(ctx context.Context, key string) (uint64, error)
	// SetIfGeneration stores value only while the generation of key still equals gen.
	// It reports whether the value was stored.
	SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen uint64) (bool, error)
	// Invalidate deletes key and bumps its generation in one step, so a fill that
	// read its data before the call can no longer store it.
	Invalidate(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}
