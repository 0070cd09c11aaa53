package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/adapter/memory"
	"github.com/user/url-frontier/internal/adapter/postgres"
	redisadapter "github.com/user/url-frontier/internal/adapter/redis"
	"github.com/user/url-frontier/internal/frontier"
	"github.com/user/url-frontier/internal/repository"
	"github.com/user/url-frontier/internal/usecase"
	"github.com/user/url-frontier/internal/worker"
	"github.com/user/url-frontier/pkg/config"
	"github.com/user/url-frontier/pkg/logger"
	"github.com/user/url-frontier/pkg/metrics"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	store      repository.FrontierStore
	delays     *postgres.CrawlDelayRepoImpl
	frontier   *frontier.Frontier
	politeness usecase.Politeness
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &app{cfg: cfg, logger: log, registry: reg, metrics: m}

	a.store, err = openStore(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	if cfg.Postgres.URL != "" {
		a.delays, err = postgres.NewCrawlDelayRepo(ctx, cfg.Postgres.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := a.delays.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		log.Info("PostgreSQL connection pool established")
	}

	a.frontier, err = frontier.New(frontierConfig(cfg.Frontier), a.store,
		frontier.WithLogger(log.Named("frontier")),
		frontier.WithMetrics(m),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	var repo repository.CrawlDelayRepository
	if a.delays != nil {
		repo = a.delays
	}
	a.politeness = usecase.NewPoliteness(a.frontier, repo, log.Named("politeness"))
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.FrontierStore, error) {
	if cfg.Store.Backend == config.BackendMemory {
		log.Info("using in-process frontier store")
		return memory.NewFrontierStore(), nil
	}
	client, err := redisadapter.NewClient(ctx, redisadapter.ConnOptions{
		Addr:     cfg.Redis.Addr,
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	log.Info("Redis connection established")
	return redisadapter.NewFrontierStore(client), nil
}

func frontierConfig(c config.FrontierConfig) frontier.Config {
	fc := frontier.Config{
		Name:              c.Name,
		DefaultCrawlDelay: c.DefaultCrawlDelay(),
	}
	for _, p := range c.SortedPriorities() {
		fc.Tiers = append(fc.Tiers, frontier.Tier{Name: p.Name, Probability: p.Probability})
	}
	switch c.Strategy {
	case config.StrategyStrict:
		fc.Selector = frontier.StrictPriority
	case config.StrategyRoundRobin:
		fc.Selector = frontier.RoundRobin()
	}
	return fc
}

func (a *app) newPool() *worker.Pool {
	return worker.NewPool(a.frontier, worker.Config{
		IdleBackoff:            a.cfg.Workers.IdleBackoff(),
		MaxPromotionsPerSecond: a.cfg.Workers.MaxPromotionsPerSecond,
	}, a.logger.Named("worker"), a.metrics)
}

// restoreDelays reapplies persisted crawl delays. Failure is logged only.
func (a *app) restoreDelays(ctx context.Context) {
	if _, err := a.politeness.Restore(ctx); err != nil {
		a.logger.Warn("could not restore crawl delays", zap.Error(err))
	}
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
	}
	if a.delays != nil {
		a.delays.Close()
	}
	_ = a.logger.Sync()
}
