package domain

import "context"

// BackendClient executes queries against one storage tier. Implementations
// treat the backend as an opaque, possibly slow, possibly failing service and
// classify failures into transient and permanent BackendErrors.
type BackendClient interface {
	// Source identifies which tier this client talks to (SourceHot or SourceCold).
	Source() DataSource
	// RunQuery executes a SQL string and returns rows plus schema.
	RunQuery(ctx context.Context, sql string) (*QueryResult, error)
	// ListTables returns the table names visible in this backend.
	ListTables(ctx context.Context) ([]string, error)
	// TableStats returns row count, schema, and per-column statistics.
	TableStats(ctx context.Context, table string) (*TableStats, error)
}
