// Package maintenance reshapes cold-tier tables for query locality and runs
// scheduled upkeep: repartition planning and rewrite, per-table maintenance
// options, and periodic statistics refresh.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"tierquery/internal/backend"
	"tierquery/internal/cache"
	"tierquery/internal/ddl"
	"tierquery/internal/domain"
	"tierquery/internal/metrics"
)

// uniquenessThreshold is the minimum sampled distinct/total ratio for a
// column to qualify as an inferred partition column.
const uniquenessThreshold = 0.2

// uniquenessSampleRows bounds the sample scanned when estimating ratios.
const uniquenessSampleRows = 10000

// maxInferredColumns caps how many columns the planner infers by uniqueness.
const maxInferredColumns = 2

// Orchestrator computes partition plans for cold-tier tables and applies the
// physical rewrite. It runs independently of query execution, triggered by
// explicit maintenance requests.
type Orchestrator struct {
	cold              *backend.ColdClient
	cache             *cache.MaterializationCache
	recorder          *metrics.Recorder
	verifier          *LayoutVerifier // nil when S3 is not configured
	defaultPartitions int
	logger            *slog.Logger
}

// NewOrchestrator creates an Orchestrator over the cold tier.
func NewOrchestrator(cold *backend.ColdClient, c *cache.MaterializationCache, rec *metrics.Recorder, defaultPartitions int, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cold:              cold,
		cache:             c,
		recorder:          rec,
		defaultPartitions: defaultPartitions,
		logger:            logger,
	}
}

// SetLayoutVerifier attaches post-rewrite object-layout verification.
// Optional — without it, verification is skipped.
func (o *Orchestrator) SetLayoutVerifier(v *LayoutVerifier) { o.verifier = v }

// Plan computes a partition plan for a cold-tier table. When partitionBy is
// omitted the planner prefers declared primary-key columns, then columns
// whose sampled uniqueness ratio exceeds the threshold; with neither it
// fails with NoSuitablePartitionColumns. numPartitions == 0 selects the
// configured default.
func (o *Orchestrator) Plan(ctx context.Context, table string, numPartitions int, partitionBy []string) (*domain.PartitionPlan, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return nil, domain.ErrValidation("invalid table name: %v", err)
	}
	if numPartitions < 0 {
		return nil, domain.ErrValidation("numPartitions must be positive, got %d", numPartitions)
	}
	if numPartitions == 0 {
		numPartitions = o.defaultPartitions
	}

	schema, err := o.cold.TableSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, domain.ErrNotFound("table %q not found in cold store", table)
	}

	columns := partitionBy
	if len(columns) > 0 {
		for _, c := range columns {
			if !schemaHasColumn(schema, c) {
				return nil, domain.ErrValidation("partition column %q does not exist on table %q", c, table)
			}
		}
	} else {
		columns, err = o.inferPartitionColumns(ctx, table, schema)
		if err != nil {
			return nil, err
		}
	}

	var snapshot int64
	countSQL := "SELECT COUNT(*) FROM " + ddl.QuoteIdentifier(table)
	if err := o.cold.DB().QueryRowContext(ctx, countSQL).Scan(&snapshot); err != nil {
		return nil, fmt.Errorf("snapshot row count: %w", err)
	}

	return &domain.PartitionPlan{
		ID:            uuid.NewString(),
		Table:         table,
		Columns:       columns,
		NumPartitions: numPartitions,
		SnapshotRows:  snapshot,
	}, nil
}

// inferPartitionColumns picks partition columns: primary-key columns first,
// else the highest-uniqueness columns above the threshold.
func (o *Orchestrator) inferPartitionColumns(ctx context.Context, table string, schema []domain.Column) ([]string, error) {
	pk, err := o.primaryKeyColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(pk) > 0 {
		return pk, nil
	}

	type scored struct {
		name  string
		ratio float64
	}
	var candidates []scored
	for _, col := range schema {
		ratio, err := o.uniquenessRatio(ctx, table, col.Name)
		if err != nil {
			return nil, err
		}
		if ratio > uniquenessThreshold {
			candidates = append(candidates, scored{name: col.Name, ratio: ratio})
		}
	}
	if len(candidates) == 0 {
		return nil, &domain.NoSuitablePartitionColumnsError{Table: table}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ratio > candidates[j].ratio })
	if len(candidates) > maxInferredColumns {
		candidates = candidates[:maxInferredColumns]
	}
	cols := make([]string, len(candidates))
	for i, c := range candidates {
		cols[i] = c.name
	}
	return cols, nil
}

// primaryKeyColumns reads declared PK columns from duckdb_constraints().
func (o *Orchestrator) primaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := o.cold.DB().QueryContext(ctx,
		`SELECT unnest(constraint_column_names) FROM duckdb_constraints() WHERE table_name = ? AND constraint_type = 'PRIMARY KEY'`, table)
	if err != nil {
		return nil, fmt.Errorf("primary key lookup: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// uniquenessRatio estimates distinct/total over a bounded sample.
func (o *Orchestrator) uniquenessRatio(ctx context.Context, table, column string) (float64, error) {
	if err := ddl.ValidateIdentifier(column); err != nil {
		return 0, domain.ErrValidation("invalid column name: %v", err)
	}
	q := fmt.Sprintf(
		"SELECT CAST(approx_count_distinct(%s) AS DOUBLE) / GREATEST(COUNT(*), 1) FROM (SELECT %s FROM %s LIMIT %d)",
		ddl.QuoteIdentifier(column), ddl.QuoteIdentifier(column), ddl.QuoteIdentifier(table), uniquenessSampleRows)
	var ratio float64
	if err := o.cold.DB().QueryRowContext(ctx, q).Scan(&ratio); err != nil {
		return 0, fmt.Errorf("uniqueness sample for %s.%s: %w", table, column, err)
	}
	return ratio, nil
}

// Apply performs the physical rewrite described by the plan. The rewrite is
// transactional: the table is rebuilt clustered on the partition columns in
// a staging table, verified against the snapshot row count, and swapped in
// atomically. Any mid-rewrite failure rolls back and surfaces a
// PartialRepartitionError; the table is never left silently half-rewritten.
// On confirmed success, cache entries referencing the table are invalidated.
func (o *Orchestrator) Apply(ctx context.Context, plan *domain.PartitionPlan) (*domain.RepartitionOutcome, error) {
	if plan == nil || len(plan.Columns) == 0 || plan.NumPartitions < 1 {
		return nil, domain.ErrValidation("partition plan is incomplete")
	}
	start := time.Now()

	rowCount, err := o.rewrite(ctx, plan)
	if err != nil {
		o.recorder.Record("repartition", domain.OutcomeFailure, time.Since(start))
		return nil, err
	}

	// Invalidate only after the swap is committed, so the cache never serves
	// results inconsistent with a half-applied rewrite.
	o.cache.InvalidateTable(plan.Table)

	if o.verifier != nil {
		if err := o.verifier.Verify(ctx, plan.Table); err != nil {
			o.logger.Warn("partition layout verification failed", "table", plan.Table, "error", err)
		}
	}

	o.recorder.Record("repartition", domain.OutcomeSuccess, time.Since(start))
	o.logger.Info("table repartitioned",
		"table", plan.Table, "columns", plan.Columns, "rows", rowCount, "elapsed", time.Since(start))

	return &domain.RepartitionOutcome{
		Success:          true,
		RowCount:         rowCount,
		PartitionColumns: plan.Columns,
	}, nil
}

func (o *Orchestrator) rewrite(ctx context.Context, plan *domain.PartitionPlan) (int64, error) {
	staging := plan.Table + "__repart"

	createSQL, err := ddl.CreateTableAsOrdered(staging, plan.Table, plan.Columns)
	if err != nil {
		return 0, err
	}
	dropOldSQL, err := ddl.DropTable(plan.Table)
	if err != nil {
		return 0, err
	}
	renameSQL, err := ddl.RenameTable(staging, plan.Table)
	if err != nil {
		return 0, err
	}

	tx, err := o.cold.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ddl.QuoteIdentifier(staging)); err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}

	var rowCount int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ddl.QuoteIdentifier(staging)).Scan(&rowCount); err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}
	if rowCount != plan.SnapshotRows {
		return 0, &domain.PartialRepartitionError{
			Table: plan.Table,
			Err:   fmt.Errorf("rewrite produced %d rows, snapshot had %d", rowCount, plan.SnapshotRows),
		}
	}

	if _, err := tx.ExecContext(ctx, dropOldSQL); err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}
	if _, err := tx.ExecContext(ctx, renameSQL); err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &domain.PartialRepartitionError{Table: plan.Table, Err: err}
	}
	return rowCount, nil
}

// Repartition plans and applies in one step.
func (o *Orchestrator) Repartition(ctx context.Context, table string, numPartitions int, partitionBy []string) (*domain.RepartitionOutcome, error) {
	plan, err := o.Plan(ctx, table, numPartitions, partitionBy)
	if err != nil {
		return nil, err
	}
	return o.Apply(ctx, plan)
}

func schemaHasColumn(schema []domain.Column, name string) bool {
	for _, c := range schema {
		if c.Name == name {
			return true
		}
	}
	return false
}
