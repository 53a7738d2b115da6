package domain

import "time"

// DataSource identifies which storage tier serves a query.
type DataSource string

// Data source routing outcomes.
const (
	SourceHot  DataSource = "HOT"
	SourceCold DataSource = "COLD"
	// SourceBoth instructs the executor to run against both tiers and merge.
	SourceBoth DataSource = "BOTH"
	// SourceFederated marks a result assembled from both tiers.
	SourceFederated DataSource = "FEDERATED"
)

// ParseDataSource converts a string to a DataSource.
func ParseDataSource(s string) (DataSource, error) {
	switch DataSource(s) {
	case SourceHot, SourceCold, SourceBoth:
		return DataSource(s), nil
	default:
		return "", ErrValidation("unknown data source %q (want HOT, COLD, or BOTH)", s)
	}
}

// QueryRequest describes an inbound query. Immutable once created.
type QueryRequest struct {
	SQL            string
	TargetDate     *time.Time  // explicit point-in-time the query concerns
	Source         *DataSource // explicit backend override; always wins when set
	PartitionHints []string
	Materialize    bool // force caching of the result regardless of complexity
}

// Column describes one column of a result schema.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult holds the structured output of a query. Produced once per
// execution and never mutated afterwards, so it is safe to share read-only
// across concurrent requesters once cached.
type QueryResult struct {
	Columns  []Column
	Rows     [][]interface{}
	RowCount int
	Elapsed  time.Duration
	Source   DataSource
}

// SchemaEqual reports whether two result schemas are identical in column
// names, types, and order. Reordered columns are a mismatch: the merge policy
// is strict, never reordering-tolerant.
func SchemaEqual(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ColumnStats holds per-column aggregate statistics.
type ColumnStats struct {
	Min           interface{} `json:"min"`
	Max           interface{} `json:"max"`
	Avg           interface{} `json:"avg"`
	DistinctCount int64       `json:"distinct_count"`
}

// TableStats summarises one table of a backend.
type TableStats struct {
	Table       string                 `json:"table"`
	RowCount    int64                  `json:"row_count"`
	Schema      []Column               `json:"schema"`
	ColumnStats map[string]ColumnStats `json:"column_stats,omitempty"`
}
