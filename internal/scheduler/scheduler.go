package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task now and then once per interval until ctx is done. Runs
// never overlap.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	log := zap.L().With(zap.String("task", name))

	run := func() {
		if err := task(ctx); err != nil {
			log.Warn("scheduled task failed", zap.Error(err))
		}
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
