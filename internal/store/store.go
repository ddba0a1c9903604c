package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"vagahunter-engine/internal/domain"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

var ErrInvalidListOpts = errors.New("invalid list options")

// Job is a persisted lead.
type Job struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	IsRemote    bool      `json:"is_remote"`
	Description string    `json:"description"`
	MatchScore  *int      `json:"match_score"`
	MatchReason *string   `json:"match_reason"`
	Query       string    `json:"query"`
	CreatedAt   time.Time `json:"created_at"`
}

// Lead converts the row back into a domain lead.
func (j Job) Lead() domain.Lead {
	return domain.Lead{
		Title:       j.Title,
		Company:     j.Company,
		URL:         j.URL,
		Source:      j.Source,
		IsRemote:    j.IsRemote,
		Description: j.Description,
		MatchScore:  j.MatchScore,
		MatchReason: j.MatchReason,
	}
}

// JobFromLead prepares a lead found by query for insertion.
func JobFromLead(l domain.Lead, query string) Job {
	return Job{
		Title:       l.Title,
		Company:     l.Company,
		URL:         l.URL,
		Source:      l.Source,
		IsRemote:    l.IsRemote,
		Description: l.Description,
		MatchScore:  l.MatchScore,
		MatchReason: l.MatchReason,
		Query:       strings.TrimSpace(query),
		CreatedAt:   time.Now().UTC(),
	}
}

type ListOpts struct {
	Skip  int
	Limit int
	Sort  string // id | date | score | company | title
}

// orderBy whitelists sort keys; values are SQL shared by both backends.
var orderBy = map[string]string{
	"id":      "id DESC",
	"date":    "created_at DESC, id DESC",
	"score":   "match_score DESC NULLS LAST, id DESC",
	"company": "company ASC, id DESC",
	"title":   "title ASC, id DESC",
}

// Normalize fills defaults and rejects out-of-range values.
func (o ListOpts) Normalize() (ListOpts, error) {
	o.Sort = strings.ToLower(strings.TrimSpace(o.Sort))
	if o.Sort == "" {
		o.Sort = "id"
	}
	if _, ok := orderBy[o.Sort]; !ok {
		return o, eris.Wrapf(ErrInvalidListOpts, "unknown sort %q", o.Sort)
	}
	if o.Skip < 0 {
		return o, eris.Wrap(ErrInvalidListOpts, "skip must be >= 0")
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit < 1 || o.Limit > MaxLimit {
		return o, eris.Wrapf(ErrInvalidListOpts, "limit must be 1..%d", MaxLimit)
	}
	return o, nil
}

// Store persists leads keyed by their normalized URL.
type Store interface {
	// FindByURLs returns the persisted jobs among urls, keyed by url.
	FindByURLs(ctx context.Context, urls []string) (map[string]Job, error)
	// Insert adds j unless its url is already stored. It returns the stored
	// row and whether it was newly added.
	Insert(ctx context.Context, j Job) (Job, bool, error)
	List(ctx context.Context, opts ListOpts) ([]Job, error)
	Close() error
}

// Open picks a backend from databaseURL.
//
//	sqlite:///data/app.db   relative path data/app.db
//	sqlite:////var/app.db   absolute path /var/app.db
//	postgres://...          PostgreSQL
//	anything else           treated as a SQLite file path
func Open(ctx context.Context, databaseURL string) (Store, error) {
	u := strings.TrimSpace(databaseURL)
	if u == "" {
		return nil, eris.New("store: database url is empty")
	}
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return OpenPostgres(ctx, u)
	}
	path := SQLitePath(u)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "store: create data dir")
		}
	}
	return OpenSQLite(ctx, path)
}

// SQLitePath extracts the file path from a sqlite URL.
func SQLitePath(databaseURL string) string {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite:///"):
		return strings.TrimPrefix(databaseURL, "sqlite:///")
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return strings.TrimPrefix(databaseURL, "sqlite://")
	case strings.HasPrefix(databaseURL, "file:"):
		return strings.TrimPrefix(databaseURL, "file:")
	}
	return databaseURL
}
