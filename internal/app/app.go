// Package app provides application-level wiring and dependency injection
// for the tiered query layer following hexagonal architecture.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"

	"tierquery/internal/backend"
	"tierquery/internal/cache"
	"tierquery/internal/config"
	"tierquery/internal/domain"
	"tierquery/internal/metrics"
	"tierquery/internal/resilience"
	"tierquery/internal/router"
	"tierquery/internal/service/maintenance"
	"tierquery/internal/service/query"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, clock, and the logger.
type Deps struct {
	Cfg    *config.Config
	HotDB  *sql.DB
	ColdDB *sql.DB
	Logger *slog.Logger
	Clock  clock.Clock
}

// App holds the fully-wired application.
type App struct {
	Federation  *query.FederationService
	Maintenance *maintenance.Service
	Recorder    *metrics.Recorder
	Cache       *cache.MaterializationCache
}

// New wires backends, resilience, cache, and services from the provided deps.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	policy, err := domain.NewRetentionPolicy(cfg.HotWindowDays, cfg.ColdWindowDays)
	if err != nil {
		return nil, err
	}

	hot := backend.NewHotClient(deps.HotDB, deps.Logger.With("component", "hot-backend"))
	cold := backend.NewColdClient(deps.ColdDB, deps.Logger.With("component", "cold-backend"))
	if err := cold.Setup(ctx, cfg); err != nil {
		return nil, fmt.Errorf("cold store setup: %w", err)
	}

	retrier := resilience.NewRetrier(cfg.MaxRetries, cfg.RetryDelay, cfg.RetryMaxDelay,
		clk, deps.Logger.With("component", "retrier"))
	hotBreaker := resilience.NewCircuitBreaker(domain.SourceHot, cfg.BreakerThreshold, cfg.BreakerCooldown, clk)
	coldBreaker := resilience.NewCircuitBreaker(domain.SourceCold, cfg.BreakerThreshold, cfg.BreakerCooldown, clk)

	resultCache := cache.New(clk, deps.Logger.With("component", "cache"))
	recorder := metrics.NewRecorder(cfg.MetricsRetention, clk)

	fed := query.NewFederationService(
		router.New(policy, clk),
		hot, cold,
		retrier,
		hotBreaker, coldBreaker,
		resultCache,
		recorder,
		query.Options{
			QueryTimeout:    cfg.QueryTimeout,
			CacheTTL:        cfg.CacheTTL,
			DefaultRowLimit: cfg.DefaultRowLimit,
		},
		deps.Logger.With("component", "federation"),
	)

	orch := maintenance.NewOrchestrator(cold, resultCache, recorder,
		cfg.DefaultPartitions, deps.Logger.With("component", "repartition"))
	if cfg.HasS3Config() {
		verifier, err := maintenance.NewLayoutVerifier(cfg)
		if err != nil {
			return nil, fmt.Errorf("layout verifier: %w", err)
		}
		orch.SetLayoutVerifier(verifier)
	}
	maint := maintenance.NewService(orch, cold, recorder, deps.Logger.With("component", "maintenance"))

	return &App{
		Federation:  fed,
		Maintenance: maint,
		Recorder:    recorder,
		Cache:       resultCache,
	}, nil
}
