package api

import (
	"net/http"
	"strconv"
	"time"

	"tierquery/internal/domain"
)

// Metrics reports aggregate operation statistics over a recent window plus
// the circuit-breaker state of each backend.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if raw := r.URL.Query().Get("window_seconds"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			h.writeError(w, r, domain.ErrValidation("invalid window_seconds %q", raw))
			return
		}
		window = time.Duration(secs) * time.Second
	}

	breakers := make(map[string]string)
	for source, state := range h.query.BreakerStates() {
		breakers[string(source)] = string(state)
	}

	snap := h.recorder.Snapshot(window)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":        snap.Count,
		"mean_seconds": snap.Mean.Seconds(),
		"p95_seconds":  snap.P95.Seconds(),
		"error_rate":   snap.ErrorRate,
		"breakers":     breakers,
	})
}
