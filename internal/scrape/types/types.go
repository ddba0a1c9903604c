package types

import (
	"context"
	"time"

	"vagahunter-engine/internal/domain"
)

// Result is the outcome of one unit of fan-out work. Exactly one of Value or
// Err is meaningful; callers turn failures into placeholders at the boundary.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

func (r Result[T]) OK() bool { return r.Err == nil }

// Or returns the value, or fallback when the work failed.
func (r Result[T]) Or(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// ScrapeResult is what one source contributed to an aggregation run.
type ScrapeResult struct {
	Source string
	Leads  []domain.Lead
	Took   time.Duration
}

type ScrapeStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastAdded int    `json:"last_added"`
	Running   bool   `json:"running"`
}

// Extractor pulls leads for a query from one job board.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, query string) ([]domain.Lead, error)
}
