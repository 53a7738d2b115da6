package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tierquery/internal/ddl"
	"tierquery/internal/domain"
)

var _ domain.BackendClient = (*HotClient)(nil)

// HotClient talks to the row-oriented transactional store holding recent
// data. It is backed by SQLite through database/sql.
type HotClient struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewHotClient creates a HotClient over an open SQLite handle.
func NewHotClient(db *sql.DB, logger *slog.Logger) *HotClient {
	return &HotClient{db: db, logger: logger}
}

// Source identifies this client as the hot tier.
func (c *HotClient) Source() domain.DataSource { return domain.SourceHot }

// RunQuery executes a SQL string against the hot store.
func (c *HotClient) RunQuery(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	start := time.Now()

	rows, err := c.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, classify(domain.SourceHot, err)
	}
	defer rows.Close() //nolint:errcheck

	result, err := scanRows(rows)
	if err != nil {
		return nil, classify(domain.SourceHot, err)
	}
	result.Source = domain.SourceHot
	result.Elapsed = time.Since(start)

	c.logger.Debug("hot query executed", "rows", result.RowCount, "elapsed", result.Elapsed)
	return result, nil
}

// ListTables returns the user tables in the hot store.
func (c *HotClient) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'goose_%' ORDER BY name`)
	if err != nil {
		return nil, classify(domain.SourceHot, err)
	}
	defer rows.Close() //nolint:errcheck

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(domain.SourceHot, err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableStats returns row count, schema, and numeric column statistics.
func (c *HotClient) TableStats(ctx context.Context, table string) (*domain.TableStats, error) {
	schema, err := c.tableSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, domain.ErrNotFound("table %q not found in hot store", table)
	}
	return collectTableStats(ctx, c.db, domain.SourceHot, table, schema)
}

// tableSchema reads column names and declared types via PRAGMA table_info.
func (c *HotClient) tableSchema(ctx context.Context, table string) ([]domain.Column, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return nil, domain.ErrValidation("invalid table name: %v", err)
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", ddl.QuoteIdentifier(table)))
	if err != nil {
		return nil, classify(domain.SourceHot, err)
	}
	defer rows.Close() //nolint:errcheck

	var schema []domain.Column
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      interface{}
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, classify(domain.SourceHot, err)
		}
		schema = append(schema, domain.Column{Name: name, Type: typ})
	}
	return schema, rows.Err()
}
