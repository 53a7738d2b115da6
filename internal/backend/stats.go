package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tierquery/internal/ddl"
	"tierquery/internal/domain"
	"tierquery/internal/sqlrewrite"
)

// numericTypes are the column types eligible for min/max/avg statistics.
var numericTypes = map[string]bool{
	"int": true, "integer": true, "bigint": true, "smallint": true, "tinyint": true,
	"hugeint": true, "double": true, "float": true, "real": true, "decimal": true,
	"numeric": true,
}

func isNumericType(typ string) bool {
	t := strings.ToLower(typ)
	if i := strings.Index(t, "("); i >= 0 {
		t = t[:i]
	}
	return numericTypes[strings.TrimSpace(t)]
}

// collectTableStats assembles row count, schema, and per-numeric-column
// statistics for one table. Schema discovery is backend-specific and passed
// in by the caller.
func collectTableStats(ctx context.Context, db *sql.DB, source domain.DataSource, table string, schema []domain.Column) (*domain.TableStats, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return nil, domain.ErrValidation("invalid table name: %v", err)
	}
	countSQL := "SELECT COUNT(*) FROM " + ddl.QuoteIdentifier(table)

	var rowCount int64
	if err := db.QueryRowContext(ctx, countSQL).Scan(&rowCount); err != nil {
		return nil, classify(source, err)
	}

	stats := &domain.TableStats{
		Table:       table,
		RowCount:    rowCount,
		Schema:      schema,
		ColumnStats: make(map[string]domain.ColumnStats),
	}

	for _, col := range schema {
		if !isNumericType(col.Type) {
			continue
		}
		statsSQL, err := sqlrewrite.BuildStatsQuery(table, col.Name)
		if err != nil {
			return nil, err
		}
		var cs domain.ColumnStats
		if err := db.QueryRowContext(ctx, statsSQL).Scan(&cs.Min, &cs.Max, &cs.Avg, &cs.DistinctCount); err != nil {
			return nil, classify(source, fmt.Errorf("column stats for %s.%s: %w", table, col.Name, err))
		}
		stats.ColumnStats[col.Name] = cs
	}

	return stats, nil
}
