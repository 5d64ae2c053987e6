package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonwraymond/taostats-mcp/cache"
	"github.com/jonwraymond/taostats-mcp/config"
	"github.com/jonwraymond/taostats-mcp/fetch"
	"github.com/jonwraymond/taostats-mcp/health"
	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/request"
	"github.com/jonwraymond/taostats-mcp/router"
	"github.com/jonwraymond/taostats-mcp/tools"
)

// app is the wired bridge shared by serve and fetch.
type app struct {
	cfg    *config.Config
	obs    observe.Observer
	logger observe.Logger

	store    *cache.MemoryCache
	exec     *request.Executor
	fetcher  *fetch.Fetcher
	registry *tools.Registry

	middleware *observe.Middleware
	upstream   *health.UpstreamChecker
	health     *health.Aggregator
}

func loadConfig(ctx context.Context, v *viper.Viper, path string) (*config.Config, error) {
	cfg, err := config.Load(ctx, v, path)
	if errors.Is(err, config.ErrMissingAPIKey) {
		return nil, fmt.Errorf("%w: set TAOSTATS_API_KEY or api_key in the config file", err)
	}
	return cfg, err
}

func newApp(ctx context.Context, v *viper.Viper, path string) (*app, error) {
	cfg, err := loadConfig(ctx, v, path)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe(Version))
	if err != nil {
		return nil, err
	}
	tel, err := observe.TelemetryFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		obs:        obs,
		logger:     tel.Logger,
		store:      cache.NewMemoryCache(),
		exec:       request.New(cfg.Request(), request.WithLogger(tel.Logger)),
		middleware: observe.NewMiddleware(tel.Tracer, tel.Metrics, tel.Logger),
		upstream:   health.NewUpstreamChecker(0),
		health:     health.NewAggregator(0),
	}

	a.fetcher = fetch.New(a.store, router.New(cfg.Router()), a.exec,
		fetch.WithLogger(tel.Logger),
		fetch.WithTracer(tel.Tracer),
		fetch.WithMetrics(tel.Metrics),
		fetch.WithCoalescing(cfg.Coalesce),
		fetch.WithHook(a.recordUpstream),
	)
	a.registry = tools.New(a.fetcher,
		tools.WithCacheStats(a.store),
		tools.WithLimiter(a.exec.Guard().Limiter()),
		tools.WithLogger(a.logger),
	)

	a.health.Register(health.NewMemoryChecker(0, 0, 0))
	a.health.Register(a.upstream)
	return a, nil
}

// recordUpstream feeds upstream call outcomes to the health checker.
func (a *app) recordUpstream(_ context.Context, out fetch.Outcome) {
	switch out.Source {
	case fetch.SourceUpstream:
		a.upstream.Record(true, "")
	case fetch.SourceFailed:
		reason := "unknown failure"
		if out.Failure != nil {
			reason = out.Failure.Error()
		}
		a.upstream.Record(false, reason)
	}
}

func (a *app) close(ctx context.Context) error {
	a.exec.Close()
	observe.Sync(a.logger)
	return a.obs.Shutdown(ctx)
}
