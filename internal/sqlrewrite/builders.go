package sqlrewrite

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"tierquery/internal/ddl"
)

// BuildSelectQuery constructs a SELECT with optional column projection,
// equality filters, ordering, and limit. Identifiers are validated and
// quoted; string filter values are quoted as SQL literals.
func BuildSelectQuery(table string, columns []string, filters map[string]interface{}, orderBy string, limit int) (string, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}

	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, 0, len(columns))
		for _, c := range columns {
			if err := ddl.ValidateIdentifier(c); err != nil {
				return "", fmt.Errorf("invalid column name %q: %w", c, err)
			}
			quoted = append(quoted, ddl.QuoteIdentifier(c))
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, ddl.QuoteIdentifier(table))

	if len(filters) > 0 {
		// Deterministic order so identical filter maps yield identical SQL.
		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		conds := make([]string, 0, len(keys))
		for _, k := range keys {
			if err := ddl.ValidateIdentifier(k); err != nil {
				return "", fmt.Errorf("invalid filter column %q: %w", k, err)
			}
			conds = append(conds, ddl.QuoteIdentifier(k)+" = "+literal(filters[k]))
		}
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if orderBy != "" {
		if err := ddl.ValidateIdentifier(orderBy); err != nil {
			return "", fmt.Errorf("invalid order-by column: %w", err)
		}
		b.WriteString(" ORDER BY " + ddl.QuoteIdentifier(orderBy))
	}

	if limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(limit))
	}

	return b.String(), nil
}

// BuildStatsQuery constructs the per-column statistics query: min, max, avg,
// and distinct count over non-null values.
func BuildStatsQuery(table, column string) (string, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ddl.ValidateIdentifier(column); err != nil {
		return "", fmt.Errorf("invalid column name: %w", err)
	}
	col := ddl.QuoteIdentifier(column)
	return fmt.Sprintf(
		"SELECT MIN(%s) AS min_value, MAX(%s) AS max_value, AVG(%s) AS avg_value, COUNT(DISTINCT %s) AS distinct_count FROM %s WHERE %s IS NOT NULL",
		col, col, col, col, ddl.QuoteIdentifier(table), col,
	), nil
}

// BuildDistinctValuesQuery constructs a value/count histogram query for a
// column, most frequent values first.
func BuildDistinctValuesQuery(table, column string, limit int) (string, error) {
	if err := ddl.ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ddl.ValidateIdentifier(column); err != nil {
		return "", fmt.Errorf("invalid column name: %w", err)
	}
	col := ddl.QuoteIdentifier(column)
	q := fmt.Sprintf(
		"SELECT %s AS value, COUNT(*) AS count FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY count DESC",
		col, ddl.QuoteIdentifier(table), col, col,
	)
	if limit > 0 {
		q += " LIMIT " + strconv.Itoa(limit)
	}
	return q, nil
}

func literal(v interface{}) string {
	switch x := v.(type) {
	case string:
		return ddl.QuoteLiteral(x)
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", x)
	}
}
