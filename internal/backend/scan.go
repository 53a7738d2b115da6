// Package backend provides the hot-tier (SQLite) and cold-tier (DuckDB)
// clients behind the domain.BackendClient capability.
package backend

import (
	"database/sql"

	"tierquery/internal/domain"
)

// scanRows drains a *sql.Rows into a QueryResult, capturing the column
// schema (name + database type) alongside the row data.
func scanRows(rows *sql.Rows) (*domain.QueryResult, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	cols := make([]domain.Column, len(types))
	for i, t := range types {
		cols[i] = domain.Column{Name: t.Name(), Type: t.DatabaseTypeName()}
	}

	var resultRows [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// Convert byte slices to strings for JSON serialization
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Columns:  cols,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
