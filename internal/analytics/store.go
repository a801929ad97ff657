package analytics

import (
	"context"
	"time"
)

// Store persists visit logs and aggregated daily stats.
type Store interface {
	// InsertVisitLog appends one raw visit record.
	InsertVisitLog(ctx context.Context, event *LinkVisitedEvent) error

	// UpsertStats folds a flushed counter snapshot into the daily row.
	// pv is a delta since the last flush; uv is the latest distinct-visitor
	// estimate for the day.
	UpsertStats(ctx context.Context, code string, date time.Time, pv, uv int64) error
}

// DailyStat is one day of aggregated traffic for a code.
type DailyStat struct {
	Date time.Time
	PV   int64
	UV   int64
}

// StatsReader serves aggregated stats to the API layer.
type StatsReader interface {
	// GetStats returns up to days of daily rows for a code, newest first.
	GetStats(ctx context.Context, code string, days int) ([]DailyStat, error)
}
