package httpapi

import (
	"context"
	"sync/atomic"

	"vagahunter-engine/internal/config"
	"vagahunter-engine/internal/events"
	"vagahunter-engine/internal/scrape/types"
	"vagahunter-engine/internal/store"
)

type Searcher interface {
	Search(ctx context.Context, query string) ([]store.Job, error)
}

type JobLister interface {
	List(ctx context.Context, opts store.ListOpts) ([]store.Job, error)
}

type Poller interface {
	Status() types.ScrapeStatus
	RunOnce(ctx context.Context) (int, error)
}

type Deps struct {
	Search Searcher
	Jobs   JobLister
	Poller Poller
	Hub    *events.Hub

	// BaseCtx bounds background work started by handlers.
	BaseCtx context.Context

	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// SetAPIKey stores a provider key; defaults to the OS keychain.
	SetAPIKey func(provider, key string) error

	// Reload is called after config or secrets change so the pipeline can be
	// rebuilt. Optional.
	Reload func(cfg config.Config) error

	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}
