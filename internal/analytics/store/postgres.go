package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miniuri/shortlink/internal/analytics"
)

// Postgres persists visit logs and daily stats rows.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed analytics store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) InsertVisitLog(ctx context.Context, event *analytics.LinkVisitedEvent) error {
	query := `
		INSERT INTO visitor_logs (short_code, visitor_id, client_ip, user_agent, referrer, visit_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		event.Code,
		event.VisitorID,
		event.ClientIP,
		event.UserAgent,
		event.Referrer,
		event.VisitedAt,
	)
	if err != nil {
		return fmt.Errorf("insert visit log: %w", err)
	}

	return nil
}

// UpsertStats accumulates the PV delta and keeps the larger UV estimate, so
// repeated flushes within a day converge instead of double counting.
func (p *Postgres) UpsertStats(ctx context.Context, code string, date time.Time, pv, uv int64) error {
	query := `
		INSERT INTO visitor_stats (short_code, stat_date, pv, uv, update_time)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (short_code, stat_date) DO UPDATE
		SET pv          = visitor_stats.pv + EXCLUDED.pv,
		    uv          = GREATEST(visitor_stats.uv, EXCLUDED.uv),
		    update_time = now()
	`

	if _, err := p.pool.Exec(ctx, query, code, date.UTC().Truncate(24*time.Hour), pv, uv); err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}

	return nil
}

func (p *Postgres) GetStats(ctx context.Context, code string, days int) ([]analytics.DailyStat, error) {
	query := `
		SELECT stat_date, pv, uv
		FROM visitor_stats
		WHERE short_code = $1 AND stat_date >= $2
		ORDER BY stat_date DESC
	`

	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := p.pool.Query(ctx, query, code, since)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	defer rows.Close()

	var stats []analytics.DailyStat

	for rows.Next() {
		var s analytics.DailyStat
		if err := rows.Scan(&s.Date, &s.PV, &s.UV); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}

		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}

	return stats, nil
}

// Compile-time checks.
var (
	_ analytics.Store       = (*Postgres)(nil)
	_ analytics.StatsReader = (*Postgres)(nil)
)
