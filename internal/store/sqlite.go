package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// sqliteBatch keeps IN lists below SQLite's bound-parameter limit.
const sqliteBatch = 500

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}

	db.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: ping")
	}

	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return eris.Wrap(err, "sqlite: read user_version")
	}
	if v >= 1 {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  url TEXT NOT NULL,
  source TEXT NOT NULL,
  is_remote INTEGER NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  match_score INTEGER,
  match_reason TEXT,
  query TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_url ON jobs(url);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);`,
		`PRAGMA user_version = 1;`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return eris.Wrap(err, "sqlite: migrate")
		}
	}
	return tx.Commit()
}

const jobColumns = `id, title, company, url, source, is_remote, description, match_score, match_reason, query, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(s scanner) (Job, error) {
	var (
		j       Job
		remote  int
		score   sql.NullInt64
		reason  sql.NullString
		created string
	)
	if err := s.Scan(&j.ID, &j.Title, &j.Company, &j.URL, &j.Source, &remote, &j.Description, &score, &reason, &j.Query, &created); err != nil {
		return Job{}, err
	}
	j.IsRemote = remote != 0
	if score.Valid {
		v := int(score.Int64)
		j.MatchScore = &v
	}
	if reason.Valid {
		r := reason.String
		j.MatchReason = &r
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return j, nil
}

func (s *SQLiteStore) FindByURLs(ctx context.Context, urls []string) (map[string]Job, error) {
	out := make(map[string]Job, len(urls))
	for start := 0; start < len(urls); start += sqliteBatch {
		batch := urls[start:min(start+sqliteBatch, len(urls))]

		args := make([]any, len(batch))
		for i, u := range batch {
			args[i] = u
		}
		q := fmt.Sprintf(`SELECT %s FROM jobs WHERE url IN (?%s);`, jobColumns, strings.Repeat(",?", len(batch)-1))

		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: find by urls")
		}
		for rows.Next() {
			j, err := scanSQLiteJob(rows)
			if err != nil {
				rows.Close()
				return nil, eris.Wrap(err, "sqlite: scan job")
			}
			out[j.URL] = j
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: iterate jobs")
		}
	}
	return out, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, j Job) (Job, bool, error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	remote := 0
	if j.IsRemote {
		remote = 1
	}

	// relies on the unique index on url
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs (title, company, url, source, is_remote, description, match_score, match_reason, query, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		j.Title, j.Company, j.URL, j.Source, remote, j.Description, j.MatchScore, j.MatchReason, j.Query,
		j.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Job{}, false, eris.Wrap(err, "sqlite: insert job")
	}

	if n, _ := res.RowsAffected(); n > 0 {
		j.ID, _ = res.LastInsertId()
		return j, true, nil
	}

	existing, err := scanSQLiteJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE url = ?;`, j.URL))
	if err != nil {
		return Job{}, false, eris.Wrap(err, "sqlite: load existing job")
	}
	return existing, false, nil
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOpts) ([]Job, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT %s FROM jobs ORDER BY %s LIMIT ? OFFSET ?;`, jobColumns, orderBy[opts.Sort])
	rows, err := s.db.QueryContext(ctx, q, opts.Limit, opts.Skip)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		out = append(out, j)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate jobs")
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
