package rank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"vagahunter-engine/internal/domain"
)

const (
	DefaultConcurrency = 3

	ReasonMissingDescription = "description missing"
	ReasonAIError            = "AI error"
	ReasonParseError         = "AI parsing error"
	ReasonEmpty              = "no reason given"
)

// Gate runs leads through a Scorer with bounded concurrency. It never fails:
// every lead comes out with a score and a reason.
type Gate struct {
	scorer  Scorer
	limit   int64
	timeout time.Duration
}

func NewGate(s Scorer, concurrency int, timeout time.Duration) *Gate {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Gate{scorer: s, limit: int64(concurrency), timeout: timeout}
}

// ScoreAll returns scored copies of leads; result i belongs to leads[i].
func (g *Gate) ScoreAll(ctx context.Context, leads []domain.Lead, query string) []domain.Lead {
	out := make([]domain.Lead, len(leads))
	sem := semaphore.NewWeighted(g.limit)

	var wg sync.WaitGroup
	for i, l := range leads {
		wg.Add(1)
		go func(i int, l domain.Lead) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				out[i] = l.WithScore(0, ReasonAIError)
				return
			}
			defer sem.Release(1)
			out[i] = g.ScoreOne(ctx, l, query)
		}(i, l)
	}
	wg.Wait()
	return out
}

// ScoreOne scores a single lead.
func (g *Gate) ScoreOne(ctx context.Context, l domain.Lead, query string) domain.Lead {
	if strings.TrimSpace(l.Description) == "" {
		return l.WithScore(0, ReasonMissingDescription)
	}

	v, err := g.call(ctx, l.Description, query)
	if err != nil {
		reason := ReasonAIError
		if errors.Is(err, ErrMalformedVerdict) {
			reason = ReasonParseError
		}
		zap.L().Warn("scoring failed", zap.String("url", l.URL), zap.Error(err))
		return l.WithScore(0, reason)
	}

	reason := CleanReason(v.Reason)
	if reason == "" {
		reason = ReasonEmpty
	}
	return l.WithScore(ClampScore(v.Score), reason)
}

func (g *Gate) call(ctx context.Context, description, query string) (v RawVerdict, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scorer panic: %v", rec)
		}
	}()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.scorer.Score(ctx, description, query)
}
