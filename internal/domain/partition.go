package domain

// PartitionPlan describes how a cold-tier table's rows should be physically
// regrouped. Created by the orchestrator, consumed once by Apply, then
// discarded.
type PartitionPlan struct {
	ID            string
	Table         string
	Columns       []string // non-empty, ordered
	NumPartitions int      // positive
	SnapshotRows  int64    // row count observed at planning time
}

// RepartitionOutcome reports the result of applying a partition plan.
type RepartitionOutcome struct {
	Success          bool     `json:"success"`
	RowCount         int64    `json:"row_count"`
	PartitionColumns []string `json:"partition_columns"`
}

// MaintenanceOptions holds per-table maintenance settings.
type MaintenanceOptions struct {
	CompactionEnabled     bool   `json:"compaction_enabled"`
	SnapshotRetentionDays int    `json:"snapshot_retention_days"`
	StatsRefreshCron      string `json:"stats_refresh_cron,omitempty"` // cron spec; empty disables periodic stats refresh
	RepartitionCron       string `json:"repartition_cron,omitempty"`   // cron spec; empty disables scheduled repartition
}
