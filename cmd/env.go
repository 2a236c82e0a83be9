package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/directory"
	"github.com/tonasket-wiki/directory-cli/internal/enrich"
	"github.com/tonasket-wiki/directory-cli/internal/source"
	"github.com/tonasket-wiki/directory-cli/internal/store"
	"github.com/tonasket-wiki/directory-cli/pkg/geocode"
	"github.com/tonasket-wiki/directory-cli/pkg/socrata"
)

// appEnv holds the initialized store and services shared by the
// submit/enrich/review/serve commands.
type appEnv struct {
	Store     store.Store
	Service   *directory.Service
	Sources   *source.Registry
	Refresher *enrich.Refresher
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
			MinConns: int32(cfg.Store.MinConns),
		})
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, the external source adapters, and the
// submission and enrichment services. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	sources := source.NewRegistry()

	socOpts := []socrata.Option{}
	if cfg.Socrata.RatePerSec > 0 {
		socOpts = append(socOpts, socrata.WithRateLimit(cfg.Socrata.RatePerSec))
	}
	socClient := socrata.New(cfg.Socrata.BaseURL, cfg.Socrata.Dataset, cfg.Socrata.AppToken, socOpts...)
	sources.Register(source.NewSocrata(socClient))

	if cfg.Webdir.URL != "" {
		sources.Register(source.NewWebDir("webdir", cfg.Webdir.URL, source.DefaultWebDirSelectors(), nil))
	}

	adapter, err := sources.Get(cfg.Enrich.Source)
	if err != nil {
		_ = st.Close()
		return nil, eris.Errorf("unknown enrichment source %q (available: %s)",
			cfg.Enrich.Source, strings.Join(sources.Names(), ", "))
	}

	refresher := enrich.NewRefresher(st, adapter, enrich.Config{
		BatchSize:   cfg.Enrich.BatchSize,
		Concurrency: cfg.Enrich.Concurrency,
		BatchDelay:  time.Duration(cfg.Enrich.BatchDelaySecs) * time.Second,
	}, nil).WithGeocoder(geocode.New())

	return &appEnv{
		Store:     st,
		Service:   directory.New(st, nil),
		Sources:   sources,
		Refresher: refresher,
	}, nil
}
