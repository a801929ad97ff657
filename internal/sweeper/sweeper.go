// Package sweeper periodically deletes expired mappings from the durable
// store. Cache entries expire on their own TTLs and are not touched.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger deletes expired rows and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper drives a Purger on a fixed interval.
type Sweeper struct {
	purger   Purger
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a sweeper.
func New(purger Purger, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		purger:   purger,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	count, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))

		return
	}

	if count > 0 {
		s.logger.Info("expired mappings purged", zap.Int64("count", count))
	}
}

// Shutdown stops the sweep loop.
func (s *Sweeper) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}

	<-s.done

	return nil
}
