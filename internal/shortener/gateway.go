package shortener

import (
	"context"
	"time"
)

// Cache is the fast lookup gateway. Keys are short codes, values are long
// URLs, every write carries a TTL.
type Cache interface {
	// Get returns the long URL for a code, or ErrCacheMiss if absent.
	Get(ctx context.Context, code string) (string, error)

	// Set unconditionally stores code -> longURL with a fresh TTL.
	Set(ctx context.Context, code, longURL string, ttl time.Duration) error

	// SetIfAbsent atomically stores code -> longURL only when no value
	// exists for the code. It reports whether the write happened. This is
	// the arbiter of "is this code free" under concurrent generation.
	SetIfAbsent(ctx context.Context, code, longURL string, ttl time.Duration) (bool, error)

	// Expire refreshes the TTL of an existing entry without changing it.
	Expire(ctx context.Context, code string, ttl time.Duration) error

	// Delete removes the entry for a code.
	Delete(ctx context.Context, code string) error
}

// Store is the durable gateway. It is the source of truth once a mapping has
// been committed; cache entries are derived from it.
type Store interface {
	// Upsert inserts the mapping, or overwrites the row with the same
	// short code. The engine only reaches the overwrite path after proving
	// via the cache that the code already maps to the same URL.
	Upsert(ctx context.Context, m *Mapping) (int64, error)

	// FindByCode returns the mapping for a short code, or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Mapping, error)

	// DeleteExpired removes rows whose expire time has passed and returns
	// the number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
