// Package ratelimit guards the generation endpoint against abuse with a
// fixed-window counter per client.
package ratelimit

import (
	"context"
	"time"
)

// MetadataKey marks huma operations that should be rate limited.
const MetadataKey = "ratelimited"

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Store counts hits per key within a window.
type Store interface {
	// Incr bumps the counter for key and returns the new count. The first
	// hit starts the window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// FixedWindowLimiter allows at most limit requests per key per window.
type FixedWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a fixed-window limiter.
func NewFixedWindowLimiter(store Store, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{store: store, limit: limit, window: window}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}
