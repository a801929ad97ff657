package store

import (
	"context"
	"time"

	"github.com/miniuri/shortlink/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op analytics store that only logs. Used when no stats
// database is configured.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) InsertVisitLog(_ context.Context, event *analytics.LinkVisitedEvent) error {
	n.logger.Info("visit",
		zap.String("code", event.Code),
		zap.Time("visitedAt", event.VisitedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

func (n *Noop) UpsertStats(_ context.Context, code string, date time.Time, pv, uv int64) error {
	n.logger.Info("stats snapshot",
		zap.String("code", code),
		zap.Time("date", date),
		zap.Int64("pv", pv),
		zap.Int64("uv", uv),
	)

	return nil
}

func (n *Noop) GetStats(_ context.Context, _ string, _ int) ([]analytics.DailyStat, error) {
	return nil, nil
}

// Compile-time checks.
var (
	_ analytics.Store       = (*Noop)(nil)
	_ analytics.StatsReader = (*Noop)(nil)
)
