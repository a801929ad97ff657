package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miniuri/shortlink/internal/shortener"
)

// PostgresStore implements shortener.Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed durable store gateway.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Upsert is keyed by short_code. The unique constraint on short_code is
// defense-in-depth; the engine only reaches the update path after proving
// via the cache that the code already maps to the same URL.
func (p *PostgresStore) Upsert(ctx context.Context, m *shortener.Mapping) (int64, error) {
	query := `
		INSERT INTO url_mappings (short_code, long_url, build_type, expire_time, create_time, update_time)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (short_code) DO UPDATE
		SET long_url    = EXCLUDED.long_url,
		    build_type  = EXCLUDED.build_type,
		    expire_time = EXCLUDED.expire_time,
		    update_time = now()
		RETURNING id
	`

	var id int64

	err := p.pool.QueryRow(ctx, query,
		m.ShortCode,
		m.LongURL,
		int(m.BuildType),
		m.ExpireTime,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert mapping: %w", err)
	}

	return id, nil
}

func (p *PostgresStore) FindByCode(ctx context.Context, code string) (*shortener.Mapping, error) {
	query := `
		SELECT id, short_code, long_url, build_type, expire_time, create_time, update_time
		FROM url_mappings
		WHERE short_code = $1
	`

	var (
		m         shortener.Mapping
		buildType int
	)

	err := p.pool.QueryRow(ctx, query, code).Scan(
		&m.ID,
		&m.ShortCode,
		&m.LongURL,
		&buildType,
		&m.ExpireTime,
		&m.CreateTime,
		&m.UpdateTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("find by code: %w", err)
	}

	m.BuildType = shortener.BuildType(buildType)

	return &m, nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM url_mappings
		WHERE expire_time IS NOT NULL AND expire_time < $1
	`

	tag, err := p.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Compile-time check.
var _ shortener.Store = (*PostgresStore)(nil)
