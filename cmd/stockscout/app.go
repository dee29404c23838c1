package main

import (
	"context"
	"log"
	"time"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
	"github.com/mohammad-safakhou/stockscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/stockscout/provider"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/cache"
	"github.com/mohammad-safakhou/stockscout/tools/web_search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// app holds the components shared by the commands.
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	orch     *core.Orchestrator
	rdb      *redis.Client
	tracing  *telemetry.Tracing
}

const version = "0.1.0"

func newLogger(prefix string, debug bool) *log.Logger {
	flags := log.LstdFlags
	if debug {
		flags |= log.Lshortfile
	}
	return log.New(log.Writer(), prefix, flags)
}

// buildApp loads configuration and wires the pipeline. Only an unusable LLM
// provider is fatal; every other gap degrades the affected component.
func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	debug := cfg.General.Debug
	mainLogger := newLogger("[STOCKSCOUT] ", debug)
	for _, w := range cfg.Warnings() {
		mainLogger.Printf("[warn] %s", w)
	}

	tracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, version)
	if err != nil {
		mainLogger.Printf("[warn] tracing disabled: %v", err)
	}

	registry := prometheus.NewRegistry()
	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.New(registry)
	}

	a := &app{cfg: cfg, registry: registry, tracing: tracing}
	llm, err := provider.NewProvider(cfg.LLM, newLogger("[LLM] ", debug), metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	mainLogger.Printf("llm provider %s, model %s", cfg.LLM.Provider, llm.Model())
	search, err := web_search.NewClient(cfg.Search, newLogger("[SEARCH] ", debug), metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	fetchLogger := newLogger("[FETCH] ", debug)
	fetchOpts := []web_fetch.Option{web_fetch.WithLogger(fetchLogger), web_fetch.WithMetrics(metrics)}
	if cfg.Cache.Enabled {
		rdb, err := cache.Conn(ctx, cfg.Cache, fetchLogger)
		if err != nil {
			mainLogger.Printf("[warn] redis unavailable at %s, page cache disabled: %v", cfg.Cache.Addr(), err)
		} else {
			a.rdb = rdb
			fetchOpts = append(fetchOpts, web_fetch.WithCache(cache.NewRedis(rdb, cfg.Cache.TTL)))
		}
	}
	fetcher := web_fetch.NewFromConfig(cfg.Fetch, fetchOpts...)

	a.orch = core.NewOrchestrator(llm, search, fetcher, cfg.Research,
		core.WithLogger(newLogger("[RESEARCH] ", debug)),
		core.WithMetrics(metrics),
		core.WithResultCount(cfg.Search.ResultCount),
	)
	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracing.Shutdown(ctx); err != nil {
		log.Printf("[STOCKSCOUT] tracing shutdown: %v", err)
	}
}
