package store

import (
	"context"
	"sync"
	"time"

	"github.com/miniuri/shortlink/internal/shortener"
)

// MemoryCache is an in-memory shortener.Cache used by tests and local runs.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) live(code string) (cacheEntry, bool) {
	e, ok := c.entries[code]
	if !ok {
		return cacheEntry{}, false
	}

	if !e.expiresAt.IsZero() && e.expiresAt.Before(time.Now()) {
		delete(c.entries, code)

		return cacheEntry{}, false
	}

	return e, true
}

func (c *MemoryCache) Get(_ context.Context, code string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(code)
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, code, longURL string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[code] = cacheEntry{value: longURL, expiresAt: deadline(ttl)}

	return nil
}

func (c *MemoryCache) SetIfAbsent(_ context.Context, code, longURL string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.live(code); ok {
		return false, nil
	}

	c.entries[code] = cacheEntry{value: longURL, expiresAt: deadline(ttl)}

	return true, nil
}

func (c *MemoryCache) Expire(_ context.Context, code string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.live(code); ok {
		e.expiresAt = deadline(ttl)
		c.entries[code] = e
	}

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, code)

	return nil
}

func deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}

	return time.Now().Add(ttl)
}

// MemoryStore is an in-memory shortener.Store used by tests and local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	seq  int64
	rows map[string]shortener.Mapping
}

// NewMemoryStore creates an empty in-memory durable store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]shortener.Mapping)}
}

func (s *MemoryStore) Upsert(_ context.Context, m *shortener.Mapping) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	row := *m
	row.UpdateTime = now

	if existing, ok := s.rows[m.ShortCode]; ok {
		row.ID = existing.ID
		row.CreateTime = existing.CreateTime
	} else {
		s.seq++
		row.ID = s.seq
		row.CreateTime = now
	}

	s.rows[m.ShortCode] = row

	return row.ID, nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (*shortener.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	out := row

	return &out, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64

	for code, row := range s.rows {
		if row.Expired(now) {
			delete(s.rows, code)

			count++
		}
	}

	return count, nil
}

// Compile-time checks.
var (
	_ shortener.Cache = (*MemoryCache)(nil)
	_ shortener.Store = (*MemoryStore)(nil)
)
