package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tierquery/internal/domain"
)

type repartitionRequestBody struct {
	NumPartitions int      `json:"num_partitions,omitempty"`
	PartitionBy   []string `json:"partition_by,omitempty"`
}

// Repartition plans and applies a physical rewrite of a cold-tier table.
func (h *Handler) Repartition(w http.ResponseWriter, r *http.Request) {
	var body repartitionRequestBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
			return
		}
	}

	outcome, err := h.maintenance.Orchestrator().Repartition(r.Context(),
		chi.URLParam(r, "table"), body.NumPartitions, body.PartitionBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type maintenanceRequestBody struct {
	CompactionEnabled     bool   `json:"compaction_enabled"`
	SnapshotRetentionDays int    `json:"snapshot_retention_days"`
	StatsRefreshCron      string `json:"stats_refresh_cron,omitempty"`
	RepartitionCron       string `json:"repartition_cron,omitempty"`
}

// ConfigureMaintenance stores per-table maintenance options and schedules
// periodic stats refresh.
func (h *Handler) ConfigureMaintenance(w http.ResponseWriter, r *http.Request) {
	var body maintenanceRequestBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	opts := domain.MaintenanceOptions{
		CompactionEnabled:     body.CompactionEnabled,
		SnapshotRetentionDays: body.SnapshotRetentionDays,
		StatsRefreshCron:      body.StatsRefreshCron,
		RepartitionCron:       body.RepartitionCron,
	}
	if err := h.maintenance.Configure(r.Context(), chi.URLParam(r, "table"), opts); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// MaintenanceOptions returns the stored options for a table.
func (h *Handler) MaintenanceOptions(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	opts, ok := h.maintenance.Options(table)
	if !ok {
		h.writeError(w, r, domain.ErrNotFound("no maintenance options configured for table %q", table))
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
