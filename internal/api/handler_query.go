package api

import (
	"net/http"
	"time"

	"tierquery/internal/domain"
)

type queryRequestBody struct {
	SQL            string   `json:"sql"`
	TargetDate     *string  `json:"target_date,omitempty"`
	Source         *string  `json:"source,omitempty"`
	PartitionHints []string `json:"partition_hints,omitempty"`
	Materialize    bool     `json:"materialize,omitempty"`
}

type queryResponse struct {
	Columns  []domain.Column   `json:"columns"`
	Rows     [][]interface{}   `json:"rows"`
	RowCount int               `json:"row_count"`
	Elapsed  float64           `json:"elapsed_seconds"`
	Source   domain.DataSource `json:"source"`
}

func (b queryRequestBody) toDomain() (domain.QueryRequest, error) {
	req := domain.QueryRequest{
		SQL:            b.SQL,
		PartitionHints: b.PartitionHints,
		Materialize:    b.Materialize,
	}
	if b.TargetDate != nil {
		t, err := time.Parse("2006-01-02", *b.TargetDate)
		if err != nil {
			return req, domain.ErrValidation("invalid target_date %q: want YYYY-MM-DD", *b.TargetDate)
		}
		req.TargetDate = &t
	}
	if b.Source != nil {
		src, err := domain.ParseDataSource(*b.Source)
		if err != nil {
			return req, err
		}
		req.Source = &src
	}
	return req, nil
}

// ExecuteQuery routes and executes a federated query.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	req, err := body.toDomain()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.query.RouteAndExecute(r.Context(), req)
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

// MaterializeQuery executes a query and pins its result in the cache.
func (h *Handler) MaterializeQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	req, err := body.toDomain()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	outcome, err := h.query.MaterializeQuery(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// RecommendRoute reports which tier would serve a query for the given date.
func (h *Handler) RecommendRoute(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		h.writeError(w, r, domain.ErrValidation("date query parameter is required"))
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid date %q: want YYYY-MM-DD", raw))
		return
	}

	source, err := h.query.RecommendedDataSource(date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":   raw,
		"source": source,
	})
}
