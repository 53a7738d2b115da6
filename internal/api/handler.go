// Package api provides the HTTP handlers for the federated query REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tierquery/internal/metrics"
	"tierquery/internal/service/maintenance"
	"tierquery/internal/service/query"
)

// Handler serves the REST API over the federation and maintenance services.
type Handler struct {
	query       *query.FederationService
	maintenance *maintenance.Service
	recorder    *metrics.Recorder
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(fed *query.FederationService, maint *maintenance.Service, rec *metrics.Recorder, logger *slog.Logger) *Handler {
	return &Handler{
		query:       fed,
		maintenance: maint,
		recorder:    rec,
		logger:      logger,
	}
}

// Routes mounts all API routes on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", h.ExecuteQuery)
		r.Post("/materialize", h.MaterializeQuery)
		r.Get("/route", h.RecommendRoute)
		r.Get("/metrics", h.Metrics)

		r.Route("/sources/{source}", func(r chi.Router) {
			r.Get("/tables", h.ListTables)
			r.Get("/tables/{table}/stats", h.TableStats)
			r.Get("/tables/{table}/sample", h.TableSample)
			r.Get("/tables/{table}/columns/{column}/values", h.ColumnValues)
		})

		r.Route("/tables/{table}", func(r chi.Router) {
			r.Post("/repartition", h.Repartition)
			r.Post("/maintenance", h.ConfigureMaintenance)
			r.Get("/maintenance", h.MaintenanceOptions)
		})
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
