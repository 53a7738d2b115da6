package maintenance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"tierquery/internal/backend"
	"tierquery/internal/cache"
	"tierquery/internal/domain"
	"tierquery/internal/metrics"
)

func newTestService() *Service {
	logger := slog.New(slog.DiscardHandler)
	clk := clock.NewMock()
	rec := metrics.NewRecorder(time.Hour, clk)
	cold := backend.NewColdClient(nil, logger)
	orch := NewOrchestrator(cold, cache.New(clk, logger), rec, 8, logger)
	return NewService(orch, cold, rec, logger)
}

func TestConfigureRejectsEmptyTable(t *testing.T) {
	t.Parallel()
	s := newTestService()

	err := s.Configure(context.Background(), "", domain.MaintenanceOptions{})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestConfigureRejectsNegativeRetention(t *testing.T) {
	t.Parallel()
	s := newTestService()

	err := s.Configure(context.Background(), "sales", domain.MaintenanceOptions{SnapshotRetentionDays: -1})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestOptionsUnsetTable(t *testing.T) {
	t.Parallel()
	s := newTestService()

	_, ok := s.Options("sales")
	require.False(t, ok)
}
