package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miniuri/shortlink/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type erroringStore struct{}

func (erroringStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit", func(t *testing.T) {
		l := ratelimit.NewFixedWindowLimiter(ratelimit.NewMemoryStore(), 3, time.Minute)

		for i := 0; i < 3; i++ {
			allowed, err := l.Allow(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, allowed, "request %d", i+1)
		}

		allowed, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := ratelimit.NewFixedWindowLimiter(ratelimit.NewMemoryStore(), 1, time.Minute)

		allowed, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, allowed)

		allowed, err = l.Allow(ctx, "5.6.7.8")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		l := ratelimit.NewFixedWindowLimiter(ratelimit.NewMemoryStore(), 1, 10*time.Millisecond)

		allowed, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, allowed)

		allowed, err = l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.False(t, allowed)

		time.Sleep(20 * time.Millisecond)

		allowed, err = l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		l := ratelimit.NewFixedWindowLimiter(erroringStore{}, 1, time.Minute)

		_, err := l.Allow(ctx, "1.2.3.4")

		assert.Error(t, err)
	})
}
