package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pvKeyPrefix = "stats:pv:"
	uvKeyPrefix = "stats:uv:"

	// counterRetention outlives the flush interval by a wide margin so a
	// stalled flusher loses nothing.
	counterRetention = 48 * time.Hour

	dateLayout = "2006-01-02"
)

// Counter keeps realtime PV/UV per code per day in Redis. PV is a plain
// counter, UV a HyperLogLog of visitor IDs. A periodic flush folds the
// counters into the durable stats store.
type Counter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCounter creates a Redis-backed visit counter.
func NewCounter(client *redis.Client, logger *zap.Logger) *Counter {
	return &Counter{client: client, logger: logger}
}

// RecordVisit bumps the PV counter and adds the visitor to the UV estimate
// for the visit's day.
func (c *Counter) RecordVisit(ctx context.Context, event *LinkVisitedEvent) error {
	date := event.VisitedAt.UTC().Format(dateLayout)
	pvKey := pvKeyPrefix + date + ":" + event.Code
	uvKey := uvKeyPrefix + date + ":" + event.Code

	pipe := c.client.Pipeline()
	pipe.Incr(ctx, pvKey)
	pipe.Expire(ctx, pvKey, counterRetention)
	pipe.PFAdd(ctx, uvKey, event.VisitorID)
	pipe.Expire(ctx, uvKey, counterRetention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record visit for %q: %w", event.Code, err)
	}

	return nil
}

// Flush moves the PV deltas for the given day into the store and refreshes
// the UV estimates. PV keys are consumed (GETDEL); UV HyperLogLogs stay in
// Redis until their TTL so later flushes keep a full-day estimate.
func (c *Counter) Flush(ctx context.Context, day time.Time, store Store) error {
	date := day.UTC().Format(dateLayout)
	prefix := pvKeyPrefix + date + ":"

	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		pvKey := iter.Val()
		code := strings.TrimPrefix(pvKey, prefix)

		pv, err := c.client.GetDel(ctx, pvKey).Int64()
		if err != nil {
			c.logger.Error("read pv counter failed", zap.String("key", pvKey), zap.Error(err))

			continue
		}

		uv, err := c.client.PFCount(ctx, uvKeyPrefix+date+":"+code).Result()
		if err != nil {
			c.logger.Error("read uv estimate failed", zap.String("code", code), zap.Error(err))
		}

		if err := store.UpsertStats(ctx, code, day, pv, uv); err != nil {
			return fmt.Errorf("flush stats for %q: %w", code, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan pv counters: %w", err)
	}

	return nil
}
