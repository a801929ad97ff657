package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miniuri/shortlink/internal/shortener"
	"github.com/redis/go-redis/v9"
)

const codePrefix = "url:"

// RedisCache implements shortener.Cache on a Redis client. SETNX backs
// SetIfAbsent, which is what makes code reservation atomic across processes.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache gateway.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: codePrefix}
}

func (r *RedisCache) Get(ctx context.Context, code string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shortener.ErrCacheMiss
		}

		return "", fmt.Errorf("cache get: %w", err)
	}

	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, code, longURL string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+code, longURL, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

func (r *RedisCache) SetIfAbsent(ctx context.Context, code, longURL string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+code, longURL, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx: %w", err)
	}

	return ok, nil
}

func (r *RedisCache) Expire(ctx context.Context, code string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, r.prefix+code, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire: %w", err)
	}

	return nil
}

func (r *RedisCache) Delete(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, r.prefix+code).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}

	return nil
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
