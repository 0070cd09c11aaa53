// Package postgres persists per-host crawl delays so they survive a store flush.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_delays (
	hostname   TEXT PRIMARY KEY,
	delay_ms   BIGINT NOT NULL CHECK (delay_ms >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Ping(context.Context) error
	Close()
}

// CrawlDelayRepoImpl implements repository.CrawlDelayRepository on PostgreSQL.
type CrawlDelayRepoImpl struct {
	db pool
}

// Compile-time interface verification.
var _ repository.CrawlDelayRepository = (*CrawlDelayRepoImpl)(nil)

// NewCrawlDelayRepo connects to url and returns a repository.
func NewCrawlDelayRepo(ctx context.Context, url string) (*CrawlDelayRepoImpl, error) {
	db, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &CrawlDelayRepoImpl{db: db}, nil
}

// NewCrawlDelayRepoWithPool wraps an existing pool (primarily for testing).
func NewCrawlDelayRepoWithPool(db pool) (*CrawlDelayRepoImpl, error) {
	if db == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &CrawlDelayRepoImpl{db: db}, nil
}

// EnsureSchema creates the crawl_delays table if it does not exist.
func (r *CrawlDelayRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create crawl_delays: %w", err)
	}
	return nil
}

// Upsert stores or replaces the delay for a hostname.
func (r *CrawlDelayRepoImpl) Upsert(ctx context.Context, hostname string, delayMS int64) error {
	query := `
		INSERT INTO crawl_delays (hostname, delay_ms, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (hostname) DO UPDATE SET
			delay_ms = EXCLUDED.delay_ms,
			updated_at = NOW();
	`
	if _, err := r.db.Exec(ctx, query, hostname, delayMS); err != nil {
		return fmt.Errorf("upsert crawl delay for %s: %w", hostname, err)
	}
	return nil
}

// List returns every stored delay ordered by hostname.
func (r *CrawlDelayRepoImpl) List(ctx context.Context) ([]entity.CrawlDelay, error) {
	query := `SELECT hostname, delay_ms, updated_at FROM crawl_delays ORDER BY hostname;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list crawl delays: %w", err)
	}
	defer rows.Close()

	var delays []entity.CrawlDelay
	for rows.Next() {
		var d entity.CrawlDelay
		if err := rows.Scan(&d.Hostname, &d.DelayMS, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan crawl delay: %w", err)
		}
		delays = append(delays, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crawl delays: %w", err)
	}
	return delays, nil
}

// Delete removes the stored delay for a hostname.
func (r *CrawlDelayRepoImpl) Delete(ctx context.Context, hostname string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM crawl_delays WHERE hostname = $1;`, hostname); err != nil {
		return fmt.Errorf("delete crawl delay for %s: %w", hostname, err)
	}
	return nil
}

// Ping checks the database connection.
func (r *CrawlDelayRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close releases the pool.
func (r *CrawlDelayRepoImpl) Close() {
	if r == nil || r.db == nil {
		return
	}
	r.db.Close()
}
