package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the part of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresStore struct {
	pool Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 5
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  url TEXT NOT NULL UNIQUE,
  source TEXT NOT NULL,
  is_remote BOOLEAN NOT NULL DEFAULT FALSE,
  description TEXT NOT NULL DEFAULT '',
  match_score INTEGER,
  match_reason TEXT,
  query TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return eris.Wrap(err, "postgres: migrate")
		}
	}
	return nil
}

func scanPostgresJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.URL, &j.Source, &j.IsRemote, &j.Description, &j.MatchScore, &j.MatchReason, &j.Query, &j.CreatedAt)
	return j, err
}

func (s *PostgresStore) FindByURLs(ctx context.Context, urls []string) (map[string]Job, error) {
	out := make(map[string]Job, len(urls))
	if len(urls) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE url = ANY($1)`, urls)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find by urls")
	}
	defer rows.Close()

	for rows.Next() {
		j, err := scanPostgresJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		out[j.URL] = j
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate jobs")
}

func (s *PostgresStore) Insert(ctx context.Context, j Job) (Job, bool, error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}

	err := s.pool.QueryRow(ctx, `
INSERT INTO jobs (title, company, url, source, is_remote, description, match_score, match_reason, query, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (url) DO NOTHING
RETURNING id`,
		j.Title, j.Company, j.URL, j.Source, j.IsRemote, j.Description, j.MatchScore, j.MatchReason, j.Query, j.CreatedAt,
	).Scan(&j.ID)
	if err == nil {
		return j, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Job{}, false, eris.Wrap(err, "postgres: insert job")
	}

	existing, err := scanPostgresJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE url = $1`, j.URL))
	if err != nil {
		return Job{}, false, eris.Wrap(err, "postgres: load existing job")
	}
	return existing, false, nil
}

func (s *PostgresStore) List(ctx context.Context, opts ListOpts) ([]Job, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT %s FROM jobs ORDER BY %s LIMIT $1 OFFSET $2`, jobColumns, orderBy[opts.Sort])
	rows, err := s.pool.Query(ctx, q, opts.Limit, opts.Skip)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		j, err := scanPostgresJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		out = append(out, j)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate jobs")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
