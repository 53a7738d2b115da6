package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tierquery/internal/domain"
)

func sourceFromPath(r *http.Request) (domain.DataSource, error) {
	return domain.ParseDataSource(chi.URLParam(r, "source"))
}

// ListTables lists the tables available on one tier.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	source, err := sourceFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tables, err := h.query.ListTables(r.Context(), source)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source": source,
		"tables": tables,
	})
}

// TableStats returns row count, schema, and numeric column aggregates.
func (h *Handler) TableStats(w http.ResponseWriter, r *http.Request) {
	source, err := sourceFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stats, err := h.query.TableStats(r.Context(), source, chi.URLParam(r, "table"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// TableSample returns randomly-ordered sample rows from a table.
func (h *Handler) TableSample(w http.ResponseWriter, r *http.Request) {
	source, err := sourceFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, r, domain.ErrValidation("invalid sample size %q", raw))
			return
		}
	}

	result, err := h.query.TableSample(r.Context(), source, chi.URLParam(r, "table"), n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: result.RowCount,
		Elapsed:  result.Elapsed.Seconds(),
		Source:   result.Source,
	})
}

// ColumnValues returns distinct values of one column.
func (h *Handler) ColumnValues(w http.ResponseWriter, r *http.Request) {
	source, err := sourceFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.writeError(w, r, domain.ErrValidation("invalid limit %q", raw))
			return
		}
	}

	result, err := h.query.ColumnDistinctValues(r.Context(), source,
		chi.URLParam(r, "table"), chi.URLParam(r, "column"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	values := make([]interface{}, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) > 0 {
			values = append(values, row[0])
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"column": chi.URLParam(r, "column"),
		"values": values,
	})
}
