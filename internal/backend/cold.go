package backend

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"tierquery/internal/config"
	"tierquery/internal/ddl"
	"tierquery/internal/domain"
)

var _ domain.BackendClient = (*ColdClient)(nil)

// ColdClient talks to the columnar store holding historical data. It is
// backed by DuckDB through database/sql; when S3 is configured the handle
// can also scan object storage directly.
type ColdClient struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewColdClient creates a ColdClient over an open DuckDB handle.
func NewColdClient(db *sql.DB, logger *slog.Logger) *ColdClient {
	return &ColdClient{db: db, logger: logger}
}

// Setup installs the httpfs extension and registers S3 credentials with
// DuckDB when the configuration carries them. Without S3 config it is a no-op.
func (c *ColdClient) Setup(ctx context.Context, cfg *config.Config) error {
	if !cfg.HasS3Config() {
		return nil
	}
	for _, stmt := range []string{"INSTALL httpfs", "LOAD httpfs"} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return classify(domain.SourceCold, err)
		}
	}
	secret, err := ddl.CreateS3Secret("cold_s3", *cfg.S3KeyID, *cfg.S3Secret, *cfg.S3Endpoint, *cfg.S3Region, "path")
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, secret); err != nil {
		return classify(domain.SourceCold, err)
	}
	c.logger.Info("cold tier S3 access configured", "endpoint", *cfg.S3Endpoint, "region", *cfg.S3Region)
	return nil
}

// Source identifies this client as the cold tier.
func (c *ColdClient) Source() domain.DataSource { return domain.SourceCold }

// RunQuery executes a SQL string against the cold store.
func (c *ColdClient) RunQuery(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	start := time.Now()

	rows, err := c.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, classify(domain.SourceCold, err)
	}
	defer rows.Close() //nolint:errcheck

	result, err := scanRows(rows)
	if err != nil {
		return nil, classify(domain.SourceCold, err)
	}
	result.Source = domain.SourceCold
	result.Elapsed = time.Since(start)

	c.logger.Debug("cold query executed", "rows", result.RowCount, "elapsed", result.Elapsed)
	return result, nil
}

// ListTables returns the base tables in the cold store's main schema.
func (c *ColdClient) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' AND table_type = 'BASE TABLE' ORDER BY table_name`)
	if err != nil {
		return nil, classify(domain.SourceCold, err)
	}
	defer rows.Close() //nolint:errcheck

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(domain.SourceCold, err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableStats returns row count, schema, and numeric column statistics.
func (c *ColdClient) TableStats(ctx context.Context, table string) (*domain.TableStats, error) {
	schema, err := c.TableSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, domain.ErrNotFound("table %q not found in cold store", table)
	}
	return collectTableStats(ctx, c.db, domain.SourceCold, table, schema)
}

// TableSchema reads column names and types from information_schema, in
// ordinal position order. Exported because the repartition planner needs the
// cold schema to validate and infer partition columns.
func (c *ColdClient) TableSchema(ctx context.Context, table string) ([]domain.Column, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, classify(domain.SourceCold, err)
	}
	defer rows.Close() //nolint:errcheck

	var schema []domain.Column
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, classify(domain.SourceCold, err)
		}
		schema = append(schema, domain.Column{Name: name, Type: typ})
	}
	return schema, rows.Err()
}

// DB exposes the underlying handle for the repartition orchestrator, which
// needs transactional DDL that the BackendClient surface does not cover.
func (c *ColdClient) DB() *sql.DB { return c.db }
