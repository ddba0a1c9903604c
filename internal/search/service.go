// Package search runs one query end to end: scrape every board, skip what is
// already stored, score the rest and persist them.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"vagahunter-engine/internal/domain"
	"vagahunter-engine/internal/events"
	"vagahunter-engine/internal/scrape"
	"vagahunter-engine/internal/store"
)

type Aggregator interface {
	Aggregate(ctx context.Context, query string) ([]domain.Lead, error)
}

// Scorer is satisfied by *rank.Gate.
type Scorer interface {
	ScoreAll(ctx context.Context, leads []domain.Lead, query string) []domain.Lead
}

// Report describes one search run.
type Report struct {
	Query string        `json:"query"`
	Jobs  []store.Job   `json:"jobs"`
	Found int           `json:"found"`
	Added int           `json:"added"`
	Took  time.Duration `json:"-"`
}

type Service struct {
	agg    Aggregator
	scorer Scorer
	store  store.Store
	hub    *events.Hub
}

// New wires a service. hub may be nil.
func New(agg Aggregator, scorer Scorer, st store.Store, hub *events.Hub) *Service {
	return &Service{agg: agg, scorer: scorer, store: st, hub: hub}
}

// Search returns every job found for query in board priority order. Jobs
// already stored come back as stored; new ones are scored and inserted.
func (s *Service) Search(ctx context.Context, query string) ([]store.Job, error) {
	rep, err := s.Run(ctx, query)
	if err != nil {
		return nil, err
	}
	return rep.Jobs, nil
}

// Run is Search with counts, as needed by the poller.
func (s *Service) Run(ctx context.Context, query string) (rep Report, err error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	reqID := events.RequestID(ctx)
	rep = Report{Query: query, Jobs: []store.Job{}}

	leads, err := s.agg.Aggregate(ctx, query)
	if err != nil {
		return rep, err
	}
	rep.Found = len(leads)

	defer func() {
		rep.Took = time.Since(start)
		fin := events.SearchFinished{Query: query, Found: rep.Found, Added: rep.Added, TookMS: rep.Took.Milliseconds()}
		if err != nil {
			fin.Error = err.Error()
		}
		s.hub.Emit(reqID, events.TypeSearchFinished, fin)
	}()

	if len(leads) == 0 {
		return rep, nil
	}

	urls := make([]string, len(leads))
	for i, l := range leads {
		urls[i] = l.URL
	}
	known, err := s.store.FindByURLs(ctx, urls)
	if err != nil {
		return rep, eris.Wrap(err, "search: look up known jobs")
	}

	var fresh []domain.Lead
	for _, l := range leads {
		if _, ok := known[l.URL]; !ok {
			fresh = append(fresh, l)
		}
	}

	inserted := make(map[string]store.Job, len(fresh))
	if len(fresh) > 0 {
		scored := s.scorer.ScoreAll(ctx, fresh, query)
		for _, l := range scored {
			j, added, err := s.store.Insert(ctx, store.JobFromLead(l, query))
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return rep, err
				}
				zap.L().Error("insert job failed", zap.String("url", l.URL), zap.Error(err))
				continue
			}
			if added {
				rep.Added++
			}
			inserted[l.URL] = j
		}
	}

	for _, l := range leads {
		if j, ok := known[l.URL]; ok {
			rep.Jobs = append(rep.Jobs, j)
		} else if j, ok := inserted[l.URL]; ok {
			rep.Jobs = append(rep.Jobs, j)
		}
	}

	if rep.Added > 0 {
		s.hub.Emit(reqID, events.TypeLeadsAdded, events.LeadsAdded{Query: query, Count: rep.Added})
	}
	zap.L().Info("search finished",
		zap.String("query", query),
		zap.Int("found", rep.Found),
		zap.Int("known", len(known)),
		zap.Int("added", rep.Added),
		zap.Duration("took", time.Since(start)),
	)
	return rep, nil
}

// Preview aggregates without scoring or storing anything.
func (s *Service) Preview(ctx context.Context, query string) ([]domain.Lead, error) {
	return s.agg.Aggregate(ctx, query)
}

// IsEmptyQuery reports whether err came from a blank query.
func IsEmptyQuery(err error) bool {
	return errors.Is(err, scrape.ErrEmptyQuery)
}
