package shortener_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/miniuri/shortlink/internal/shortener"
	"github.com/miniuri/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenCache fails every operation, simulating an unreachable backend.
type brokenCache struct{}

var errCacheDown = errors.New("connection refused")

func (brokenCache) Get(context.Context, string) (string, error) { return "", errCacheDown }
func (brokenCache) Set(context.Context, string, string, time.Duration) error {
	return errCacheDown
}
func (brokenCache) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, errCacheDown
}
func (brokenCache) Expire(context.Context, string, time.Duration) error { return errCacheDown }
func (brokenCache) Delete(context.Context, string) error                { return errCacheDown }

// tableHash maps exact inputs to hash values, falling back to fallback for
// anything not listed. Tests use it to force collisions and short codes.
func tableHash(values map[string]int64, fallback int64) shortener.HashFunc {
	return func(url string) int64 {
		if v, ok := values[url]; ok {
			return v
		}

		return fallback
	}
}

func newFilter() *shortener.BloomFilter {
	return shortener.NewBloomFilterWithEstimates(1000, 0.01)
}

func TestHashResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves the first candidate when free", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()
		r := shortener.NewHashResolver(filter, cache)

		res, err := r.Resolve(ctx, "https://example.com/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, "49AZyK", res.Code)
		assert.False(t, res.Existing)

		cached, err := cache.Get(ctx, res.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", cached)
		assert.True(t, filter.Contains(res.Code))
	})

	t.Run("rehashes single character candidates", func(t *testing.T) {
		cache := store.NewMemoryCache()
		hash := tableHash(map[string]int64{
			"https://x.test/a":  7,    // encodes to one character
			"https://x.test/a$": 5000, // marker appended, long enough now
		}, 9999)
		r := shortener.NewCustomHashResolver(newFilter(), cache, hash, shortener.Base62Encode)

		res, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, shortener.Base62Encode(5000), res.Code)
	})

	t.Run("salts and retries when a different url holds the code", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()

		taken := shortener.Base62Encode(5000)
		require.NoError(t, cache.Set(ctx, taken, "https://x.test/other", time.Hour))
		filter.Add(taken)

		hash := tableHash(map[string]int64{
			"https://x.test/a":   5000,
			"https://x.test/a$0": 6000,
		}, 9999)
		r := shortener.NewCustomHashResolver(filter, cache, hash, shortener.Base62Encode)

		res, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, shortener.Base62Encode(6000), res.Code)
		assert.False(t, res.Existing)

		// The original occupant is untouched.
		cached, err := cache.Get(ctx, taken)
		require.NoError(t, err)
		assert.Equal(t, "https://x.test/other", cached)
	})

	t.Run("regenerating the same url reuses the existing code", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()
		r := shortener.NewHashResolver(filter, cache)

		first, err := r.Resolve(ctx, "https://example.com/same", time.Hour)
		require.NoError(t, err)
		require.False(t, first.Existing)

		second, err := r.Resolve(ctx, "https://example.com/same", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, first.Code, second.Code)
		assert.True(t, second.Existing)
	})

	t.Run("fails fast when the cache is unreachable on a filter hit", func(t *testing.T) {
		filter := newFilter()

		hash := tableHash(map[string]int64{"https://x.test/a": 5000}, 9999)
		filter.Add(shortener.Base62Encode(5000))

		r := shortener.NewCustomHashResolver(filter, brokenCache{}, hash, shortener.Base62Encode)

		_, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		require.Error(t, err)
		assert.ErrorIs(t, err, errCacheDown)
	})

	t.Run("lost reservation race with the same url is idempotent", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()

		// Another process reserved the code, so the filter is cold here but
		// set-if-absent loses.
		code := shortener.Base62Encode(5000)
		require.NoError(t, cache.Set(ctx, code, "https://x.test/a", time.Hour))

		hash := tableHash(map[string]int64{"https://x.test/a": 5000}, 9999)
		r := shortener.NewCustomHashResolver(filter, cache, hash, shortener.Base62Encode)

		res, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, code, res.Code)
		assert.True(t, res.Existing)
		assert.True(t, filter.Contains(code), "filter backfilled after the race")
	})

	t.Run("lost reservation race with a different url retries", func(t *testing.T) {
		cache := store.NewMemoryCache()

		code := shortener.Base62Encode(5000)
		require.NoError(t, cache.Set(ctx, code, "https://x.test/other", time.Hour))

		hash := tableHash(map[string]int64{
			"https://x.test/a":   5000,
			"https://x.test/a$0": 6000,
		}, 9999)
		r := shortener.NewCustomHashResolver(newFilter(), cache, hash, shortener.Base62Encode)

		res, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, shortener.Base62Encode(6000), res.Code)
	})

	t.Run("salvages with a timestamp salt after the retry budget", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()

		taken := shortener.Base62Encode(5000)
		require.NoError(t, cache.Set(ctx, taken, "https://x.test/other", time.Hour))
		filter.Add(taken)

		// Every budgeted candidate collides; only the timestamp-salted one
		// (a long numeric suffix) hashes somewhere new.
		hash := func(url string) int64 {
			if len(url) > len("https://x.test/a$99") {
				return 6000
			}

			return 5000
		}
		r := shortener.NewCustomHashResolver(filter, cache, hash, shortener.Base62Encode)

		res, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, shortener.Base62Encode(6000), res.Code)
	})

	t.Run("exhausts when every candidate is taken", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()

		taken := shortener.Base62Encode(5000)
		require.NoError(t, cache.Set(ctx, taken, "https://x.test/other", time.Hour))
		filter.Add(taken)

		hash := tableHash(nil, 5000)
		r := shortener.NewCustomHashResolver(filter, cache, hash, shortener.Base62Encode)

		_, err := r.Resolve(ctx, "https://x.test/a", time.Hour)

		assert.ErrorIs(t, err, shortener.ErrGenerationExhausted)
	})

	t.Run("concurrent urls never share a code", func(t *testing.T) {
		cache := store.NewMemoryCache()
		r := shortener.NewHashResolver(newFilter(), cache)

		const n = 50

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = make(map[string]string, n)
		)

		for i := 0; i < n; i++ {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				url := fmt.Sprintf("https://example.com/page/%d", i)

				res, err := r.Resolve(ctx, url, time.Hour)
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				defer mu.Unlock()

				if prev, ok := codes[res.Code]; ok {
					t.Errorf("code %q assigned to both %q and %q", res.Code, prev, url)
				}

				codes[res.Code] = url
			}(i)
		}

		wg.Wait()

		assert.Len(t, codes, n)
	})

	t.Run("concurrent requests for one url agree on the code", func(t *testing.T) {
		cache := store.NewMemoryCache()
		r := shortener.NewHashResolver(newFilter(), cache)

		const n = 20

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = make(map[string]struct{})
		)

		for i := 0; i < n; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				res, err := r.Resolve(ctx, "https://example.com/hot", time.Hour)
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				codes[res.Code] = struct{}{}
				mu.Unlock()
			}()
		}

		wg.Wait()

		assert.Len(t, codes, 1)
	})
}

func TestTokenResolver(t *testing.T) {
	ctx := context.Background()

	sequence := func(codes ...string) shortener.CodeGenerator {
		i := 0

		return func() string {
			code := codes[i%len(codes)]
			i++

			return code
		}
	}

	t.Run("reserves a generated code", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()
		r := shortener.NewTokenResolver(filter, cache, sequence("Abc123De"))

		res, err := r.Resolve(ctx, "https://example.com/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, "Abc123De", res.Code)
		assert.False(t, res.Existing)
		assert.True(t, filter.Contains("Abc123De"))
	})

	t.Run("skips codes the filter already knows", func(t *testing.T) {
		cache := store.NewMemoryCache()
		filter := newFilter()
		filter.Add("Taken001")

		r := shortener.NewTokenResolver(filter, cache, sequence("Taken001", "Fresh002"))

		res, err := r.Resolve(ctx, "https://example.com/a", time.Hour)

		require.NoError(t, err)
		assert.Equal(t, "Fresh002", res.Code)
	})

	t.Run("same url gets a fresh code each call", func(t *testing.T) {
		cache := store.NewMemoryCache()
		r := shortener.NewTokenResolver(newFilter(), cache, sequence("CodeAAA1", "CodeBBB2"))

		first, err := r.Resolve(ctx, "https://example.com/a", time.Hour)
		require.NoError(t, err)

		second, err := r.Resolve(ctx, "https://example.com/a", time.Hour)
		require.NoError(t, err)

		assert.NotEqual(t, first.Code, second.Code)
	})

	t.Run("exhausts when the generator keeps colliding", func(t *testing.T) {
		cache := store.NewMemoryCache()
		require.NoError(t, cache.Set(ctx, "Stuck001", "https://x.test/other", time.Hour))

		r := shortener.NewTokenResolver(newFilter(), cache, sequence("Stuck001"))

		_, err := r.Resolve(ctx, "https://example.com/a", time.Hour)

		assert.ErrorIs(t, err, shortener.ErrGenerationExhausted)
	})
}
