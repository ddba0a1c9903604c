package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"vagahunter-engine/internal/config"
	"vagahunter-engine/internal/events"
	"vagahunter-engine/internal/rank"
	"vagahunter-engine/internal/scrape"
	"vagahunter-engine/internal/scrape/board"
	"vagahunter-engine/internal/scrape/fetch"
	"vagahunter-engine/internal/search"
	"vagahunter-engine/internal/secrets"
	"vagahunter-engine/internal/store"
)

// newAggregator builds the scraping half of the pipeline from cfg.
func newAggregator(cfg config.Config) (*scrape.Aggregator, error) {
	specs, err := board.Lookup(cfg.Scraper.Sources)
	if err != nil {
		return nil, err
	}

	retryDelay := cfg.Scraper.RetryDelay
	if retryDelay == 0 {
		retryDelay = -1 // explicit: no pause between attempts
	}

	agg := scrape.New(specs,
		board.Options{
			MaxResults:        cfg.Scraper.MaxResults,
			ListingTimeout:    cfg.Scraper.Timeout,
			DetailTimeout:     cfg.Scraper.DetailTimeout,
			Sleep:             cfg.Scraper.Sleep,
			DetailConcurrency: cfg.Scraper.DetailConcurrency,
		},
		fetch.Options{
			UserAgent:         cfg.Scraper.UserAgent,
			Attempts:          cfg.Scraper.RetryAttempts,
			RetryDelay:        retryDelay,
			RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
			Burst:             cfg.Scraper.Burst,
		},
	)
	agg.SetSourceTimeout(cfg.Scraper.SourceTimeout)
	return agg, nil
}

// newGate builds the scoring half of the pipeline from cfg.
func newGate(ctx context.Context, cfg config.Config) (*rank.Gate, error) {
	key, err := secrets.ResolveAPIKey(cfg.AI.Provider, cfg.AI.APIKey)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			zap.L().Warn("keychain lookup failed", zap.String("provider", cfg.AI.Provider), zap.Error(err))
		}
		key = ""
	}
	scorer, err := rank.NewScorer(ctx, cfg.AI, key)
	if err != nil {
		return nil, eris.Wrap(err, "build scorer")
	}
	return rank.NewGate(scorer, cfg.AI.Concurrency, cfg.AI.Timeout), nil
}

// openStore opens cfg's database. Relative SQLite paths live under the data dir.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	u := strings.TrimSpace(cfg.Store.DatabaseURL)
	if !strings.HasPrefix(u, "postgres") {
		if p := store.SQLitePath(u); p != "" && !filepath.IsAbs(p) {
			u = filepath.Join(cfg.App.DataDir, p)
		}
	}
	return store.Open(ctx, u)
}

// engine holds the current search service and rebuilds it when config or
// keys change. Handlers and the poller keep a single *engine.
type engine struct {
	st  store.Store
	hub *events.Hub
	svc atomic.Pointer[search.Service]
}

func newEngine(ctx context.Context, cfg config.Config, st store.Store, hub *events.Hub) (*engine, error) {
	e := &engine{st: st, hub: hub}
	if err := e.reload(ctx, cfg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *engine) reload(ctx context.Context, cfg config.Config) error {
	agg, err := newAggregator(cfg)
	if err != nil {
		return err
	}
	gate, err := newGate(ctx, cfg)
	if err != nil {
		return err
	}
	e.svc.Store(search.New(agg, gate, e.st, e.hub))
	return nil
}

func (e *engine) Search(ctx context.Context, query string) ([]store.Job, error) {
	return e.svc.Load().Search(ctx, query)
}

func (e *engine) Run(ctx context.Context, query string) (search.Report, error) {
	return e.svc.Load().Run(ctx, query)
}
