package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Flusher periodically folds the Redis counters into the durable stats
// store. It flushes both today and yesterday so counts straddling midnight
// are not stranded.
type Flusher struct {
	counter  *Counter
	store    Store
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewFlusher creates a stats flusher.
func NewFlusher(counter *Counter, store Store, interval time.Duration, logger *zap.Logger) *Flusher {
	return &Flusher{
		counter:  counter,
		store:    store,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the flush loop.
func (f *Flusher) Start(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)

	go f.loop(ctx)

	return nil
}

func (f *Flusher) loop(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.flushOnce(ctx)
		}
	}
}

func (f *Flusher) flushOnce(ctx context.Context) {
	now := time.Now().UTC()

	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		if err := f.counter.Flush(ctx, day, f.store); err != nil {
			f.logger.Error("stats flush failed",
				zap.String("day", day.Format(dateLayout)),
				zap.Error(err),
			)
		}
	}
}

// Shutdown stops the flush loop.
func (f *Flusher) Shutdown() error {
	if f.cancel != nil {
		f.cancel()
	}

	<-f.done

	return nil
}
