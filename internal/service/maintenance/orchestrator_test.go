package maintenance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierquery/internal/backend"
	"tierquery/internal/cache"
	"tierquery/internal/domain"
	"tierquery/internal/metrics"
)

func newTestOrchestrator() *Orchestrator {
	logger := slog.New(slog.DiscardHandler)
	clk := clock.NewMock()
	return NewOrchestrator(
		backend.NewColdClient(nil, logger),
		cache.New(clk, logger),
		metrics.NewRecorder(time.Hour, clk),
		8,
		logger,
	)
}

func TestPlanRejectsInvalidTableName(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator()

	_, err := o.Plan(context.Background(), "sales; DROP TABLE x", 0, nil)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestPlanRejectsNegativePartitions(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator()

	_, err := o.Plan(context.Background(), "sales", -1, nil)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "numPartitions")
}

func TestApplyRejectsIncompletePlan(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator()

	_, err := o.Apply(context.Background(), nil)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = o.Apply(context.Background(), &domain.PartitionPlan{Table: "sales", NumPartitions: 4})
	require.ErrorAs(t, err, &validation, "a plan without partition columns must be rejected")

	_, err = o.Apply(context.Background(), &domain.PartitionPlan{Table: "sales", Columns: []string{"region"}})
	require.ErrorAs(t, err, &validation, "a plan without a partition count must be rejected")
}

func TestSchemaHasColumn(t *testing.T) {
	t.Parallel()
	schema := []domain.Column{{Name: "id", Type: "BIGINT"}, {Name: "region", Type: "VARCHAR"}}
	assert.True(t, schemaHasColumn(schema, "region"))
	assert.False(t, schemaHasColumn(schema, "REGION"), "column matching is case-sensitive")
	assert.False(t, schemaHasColumn(schema, "ghost"))
}
