package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tierquery/internal/backend"
	"tierquery/internal/domain"
	"tierquery/internal/metrics"
)

// Service holds per-table maintenance options and runs cron-based upkeep:
// scheduled statistics refresh against the cold store.
type Service struct {
	orch     *Orchestrator
	cold     *backend.ColdClient
	recorder *metrics.Recorder
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	options map[string]domain.MaintenanceOptions
	entries map[string][]cron.EntryID // table → scheduled jobs
}

// NewService creates a maintenance service over the orchestrator and cold tier.
func NewService(orch *Orchestrator, cold *backend.ColdClient, rec *metrics.Recorder, logger *slog.Logger) *Service {
	return &Service{
		orch:     orch,
		cold:     cold,
		recorder: rec,
		cron:     cron.New(),
		logger:   logger,
		options:  make(map[string]domain.MaintenanceOptions),
		entries:  make(map[string][]cron.EntryID),
	}
}

// Orchestrator exposes the repartition orchestrator.
func (s *Service) Orchestrator() *Orchestrator { return s.orch }

// Start begins running scheduled maintenance jobs.
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("maintenance scheduler started")
}

// Stop halts the scheduler and waits for running jobs.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("maintenance scheduler stopped")
}

// Configure stores maintenance options for a table and (re)schedules its
// cron jobs: periodic stats refresh and optional scheduled repartition. An
// empty expression removes the corresponding schedule.
func (s *Service) Configure(ctx context.Context, table string, opts domain.MaintenanceOptions) error {
	if table == "" {
		return domain.ErrValidation("table name must not be empty")
	}
	if opts.SnapshotRetentionDays < 0 {
		return domain.ErrValidation("snapshotRetentionDays must not be negative, got %d", opts.SnapshotRetentionDays)
	}
	if _, err := s.cold.TableStats(ctx, table); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entryID := range s.entries[table] {
		s.cron.Remove(entryID)
	}
	delete(s.entries, table)

	tableName := table
	if opts.StatsRefreshCron != "" {
		entryID, err := s.cron.AddFunc(opts.StatsRefreshCron, func() {
			s.refreshStats(context.Background(), tableName)
		})
		if err != nil {
			return domain.ErrValidation("invalid cron schedule %q: %v", opts.StatsRefreshCron, err)
		}
		s.entries[table] = append(s.entries[table], entryID)
		s.logger.Info("scheduled stats refresh", "table", table, "schedule", opts.StatsRefreshCron)
	}

	if opts.RepartitionCron != "" {
		entryID, err := s.cron.AddFunc(opts.RepartitionCron, func() {
			s.scheduledRepartition(context.Background(), tableName)
		})
		if err != nil {
			return domain.ErrValidation("invalid cron schedule %q: %v", opts.RepartitionCron, err)
		}
		s.entries[table] = append(s.entries[table], entryID)
		s.logger.Info("scheduled repartition", "table", table, "schedule", opts.RepartitionCron)
	}

	s.options[table] = opts
	return nil
}

// Options returns the stored maintenance options for a table.
func (s *Service) Options(table string) (domain.MaintenanceOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts, ok := s.options[table]
	return opts, ok
}

// refreshStats recomputes table statistics on the cold store. Failures are
// logged; the schedule stays in place.
func (s *Service) refreshStats(ctx context.Context, table string) {
	start := time.Now()
	if _, err := s.cold.TableStats(ctx, table); err != nil {
		s.recorder.Record("maintenance.stats_refresh", domain.OutcomeFailure, time.Since(start))
		s.logger.Warn("scheduled stats refresh failed", "table", table, "error", err)
		return
	}
	s.recorder.Record("maintenance.stats_refresh", domain.OutcomeSuccess, time.Since(start))
	s.logger.Debug("stats refreshed", "table", table, "elapsed", time.Since(start))
}

// scheduledRepartition runs a full plan-and-apply with inferred columns and
// the default partition count. Failures are logged; the schedule stays.
func (s *Service) scheduledRepartition(ctx context.Context, table string) {
	if _, err := s.orch.Repartition(ctx, table, 0, nil); err != nil {
		s.logger.Warn("scheduled repartition failed", "table", table, "error", err)
	}
}
