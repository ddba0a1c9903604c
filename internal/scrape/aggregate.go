package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vagahunter-engine/internal/domain"
	"vagahunter-engine/internal/scrape/board"
	"vagahunter-engine/internal/scrape/fetch"
	"vagahunter-engine/internal/scrape/types"
	"vagahunter-engine/internal/scrape/util"
)

// ErrEmptyQuery is the only failure Aggregate reports to its caller.
var ErrEmptyQuery = errors.New("query must not be empty")

const defaultSourceTimeout = 2 * time.Minute

// BuildFunc creates the extractors for one run, in priority order, all
// sharing the run's fetch client.
type BuildFunc func(client fetch.Getter) ([]types.Extractor, error)

// Aggregator fans a query out to every source and merges the answers.
type Aggregator struct {
	fetchOpts     fetch.Options
	build         BuildFunc
	sourceTimeout time.Duration
}

// New aggregates over the given board specs; their order is the merge priority.
func New(specs []board.Spec, opts board.Options, fetchOpts fetch.Options) *Aggregator {
	return NewWithBuilder(BoardBuilder(specs, opts), fetchOpts)
}

func NewWithBuilder(build BuildFunc, fetchOpts fetch.Options) *Aggregator {
	return &Aggregator{
		fetchOpts:     fetchOpts,
		build:         build,
		sourceTimeout: defaultSourceTimeout,
	}
}

// SetSourceTimeout caps how long a single source may run.
func (a *Aggregator) SetSourceTimeout(d time.Duration) {
	if d > 0 {
		a.sourceTimeout = d
	}
}

// BoardBuilder turns board specs into extractors bound to a run's client.
func BoardBuilder(specs []board.Spec, opts board.Options) BuildFunc {
	return func(client fetch.Getter) ([]types.Extractor, error) {
		out := make([]types.Extractor, 0, len(specs))
		for _, s := range specs {
			ex, err := board.New(s, client, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, ex)
		}
		return out, nil
	}
}

// Aggregate runs every source concurrently and returns their leads merged in
// priority order with duplicate URLs removed. A failing source contributes
// nothing; only an empty query is an error.
func (a *Aggregator) Aggregate(ctx context.Context, query string) ([]domain.Lead, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	client := fetch.New(a.fetchOpts)
	defer client.Close()

	extractors, err := a.build(client)
	if err != nil {
		return nil, eris.Wrap(err, "build extractors")
	}

	results := make([]types.Result[types.ScrapeResult], len(extractors))

	var g errgroup.Group
	for i, ex := range extractors {
		g.Go(func() error {
			results[i] = a.runSource(ctx, ex, query)
			// best-effort: don't cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	leads := Merge(results)
	zap.L().Info("aggregation finished",
		zap.String("query", query),
		zap.Int("sources", len(extractors)),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

func (a *Aggregator) runSource(ctx context.Context, ex types.Extractor, query string) (res types.Result[types.ScrapeResult]) {
	log := zap.L().With(zap.String("source", ex.Name()))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("source panicked", zap.Any("panic", rec))
			res = types.Fail[types.ScrapeResult](fmt.Errorf("%s: panic: %v", ex.Name(), rec))
		}
	}()

	sctx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	start := time.Now()
	log.Debug("source running")
	leads, err := ex.Extract(sctx, query)
	if err != nil {
		log.Warn("source failed", zap.Error(err))
		return types.Fail[types.ScrapeResult](err)
	}
	return types.Ok(types.ScrapeResult{Source: ex.Name(), Leads: leads, Took: time.Since(start)})
}

// Merge concatenates source results in order, drops failed sources and
// invalid leads, and keeps only the first lead for each normalized URL.
func Merge(results []types.Result[types.ScrapeResult]) []domain.Lead {
	seen := make(map[string]bool)
	var out []domain.Lead
	for _, r := range results {
		if !r.OK() {
			continue
		}
		for _, l := range r.Value.Leads {
			key := util.NormalizeURL(l.URL, "")
			if key == "" || seen[key] {
				continue
			}
			if keep, why := KeepLead(l); !keep {
				zap.L().Debug("lead dropped", zap.String("url", l.URL), zap.String("reason", why))
				continue
			}
			seen[key] = true
			l.URL = key
			out = append(out, l)
		}
	}
	return out
}
