package main

import (
	"os"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/cache"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/fetch"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/stages"
	"golang.org/x/time/rate"
)

// app bundles the wired planner components for one command invocation.
type app struct {
	cacheDB *database.DB
	dataDB  *database.DB
	store   cache.Store
	client  *fetch.Client
	service *stages.Service
}

// openApp wires databases, cache, fetch client, and the pipeline service
// from the loaded configuration.
func openApp(offline bool) (*app, error) {
	if err := os.MkdirAll(cfg.Core.DataDir, 0o755); err != nil {
		return nil, err
	}

	a := &app{}

	dataDB, err := database.OpenData(cfg.Core.DataPath)
	if err != nil {
		return nil, err
	}
	a.dataDB = dataDB

	if cfg.Cache.Memory {
		a.store = cache.NewMemoryStore()
	} else {
		cacheDB, err := database.OpenCache(cfg.Core.CachePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cacheDB = cacheDB
		a.store = cache.NewSQLiteStore(cacheDB)
	}

	clientOpts := []fetch.ClientOption{
		fetch.WithLogger(logger),
		fetch.WithDefaultTTL(cfg.Cache.DefaultTTL),
		fetch.WithOffline(offline || cfg.Fetch.Offline),
		fetch.WithRetryPolicy(fetch.RetryPolicy{
			MaxAttempts:     cfg.Fetch.MaxAttempts,
			BackoffStrategy: fetch.BackoffExponential,
			InitialDelay:    cfg.Fetch.InitialDelay,
			MaxDelay:        cfg.Fetch.MaxDelay,
			Multiplier:      2.0,
		}),
	}
	for source, ttl := range cfg.Cache.SourceTTLs {
		clientOpts = append(clientOpts, fetch.WithSourceTTL(source, ttl))
	}
	if cfg.Fetch.RatePerSecond > 0 {
		burst := cfg.Fetch.RateBurst
		if burst < 1 {
			burst = 1
		}
		clientOpts = append(clientOpts, fetch.WithRateLimit(rate.Limit(cfg.Fetch.RatePerSecond), burst))
	}
	a.client = fetch.NewClient(a.store, clientOpts...)

	sources := stages.Sources{
		Places:  fetch.NewHTTPSource(stages.SourcePlaces, cfg.Fetch.Endpoints[stages.SourcePlaces], nil),
		Weather: fetch.NewHTTPSource(stages.SourceWeather, cfg.Fetch.Endpoints[stages.SourceWeather], nil),
		Search:  fetch.NewHTTPSource(stages.SourceSearch, cfg.Fetch.Endpoints[stages.SourceSearch], nil),
	}

	service, err := stages.NewService(a.client, sources, dataDB,
		stages.WithLogger(logger),
		stages.WithBudgetRatios(cfg.Budget.Ratios),
		stages.WithExecutorOptions(
			pipeline.WithMaxParallel(cfg.Pipeline.MaxParallel),
			pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout),
		),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service

	return a, nil
}

// Close releases both database handles.
func (a *app) Close() {
	if a.cacheDB != nil {
		a.cacheDB.Close()
	}
	if a.dataDB != nil {
		a.dataDB.Close()
	}
}
