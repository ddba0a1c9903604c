// Package poll re-runs the configured watch queries on an interval.
package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"vagahunter-engine/internal/config"
	"vagahunter-engine/internal/scheduler"
	"vagahunter-engine/internal/scrape/types"
	"vagahunter-engine/internal/search"
)

var ErrAlreadyRunning = errors.New("a poll run is already in progress")

// Runner is satisfied by *search.Service.
type Runner interface {
	Run(ctx context.Context, query string) (search.Report, error)
}

type Poller struct {
	runner  Runner
	cfgVal  *atomic.Value // config.Config
	status  atomic.Value  // types.ScrapeStatus
	running atomic.Bool
}

func New(runner Runner, cfgVal *atomic.Value) *Poller {
	p := &Poller{runner: runner, cfgVal: cfgVal}
	p.status.Store(types.ScrapeStatus{})
	return p
}

func (p *Poller) Status() types.ScrapeStatus {
	return p.status.Load().(types.ScrapeStatus)
}

func (p *Poller) config() config.Config {
	if v := p.cfgVal.Load(); v != nil {
		return v.(config.Config)
	}
	return config.Default()
}

// Start blocks, polling every polling.interval until ctx is done. Ticks are
// skipped while polling is disabled, so it can be enabled at runtime.
func (p *Poller) Start(ctx context.Context) {
	interval := p.config().Polling.Interval
	if interval <= 0 {
		interval = config.Default().Polling.Interval
	}
	scheduler.Every(ctx, interval, "poll", func(ctx context.Context) error {
		if !p.config().Polling.Enabled {
			return nil
		}
		_, err := p.RunOnce(ctx)
		if errors.Is(err, ErrAlreadyRunning) {
			return nil
		}
		return err
	})
}

// RunOnce searches every watch query in order and returns how many jobs were
// added. One failing query does not stop the others.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	if !p.running.CompareAndSwap(false, true) {
		return 0, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	st := p.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	p.status.Store(st)

	added := 0
	var errs []error
	for _, q := range p.config().Polling.Queries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		rep, err := p.runner.Run(ctx, q)
		if err != nil {
			zap.L().Warn("poll query failed", zap.String("query", q), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		added += rep.Added
	}
	err := errors.Join(errs...)

	st = p.Status()
	st.Running = false
	st.LastAdded = added
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
		zap.L().Info("poll ok", zap.Int("added", added))
	}
	p.status.Store(st)

	return added, err
}
