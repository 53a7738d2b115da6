package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/query", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SELECT * FROM sales", req.SQL)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"columns": [{"name": "id", "type": "INTEGER"}],
			"rows": [[1], [2]],
			"row_count": 2,
			"elapsed_seconds": 0.012,
			"source": "HOT"
		}`))
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).Query(context.Background(), QueryRequest{SQL: "SELECT * FROM sales"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "HOT", result.Source)
	assert.Equal(t, "id", result.Columns[0].Name)
}

func TestClientSurfacesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": 400, "message": "sql query is required"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Query(context.Background(), QueryRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.Equal(t, "sql query is required", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "400")
}

func TestClientRoute(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/route", r.URL.Path)
		assert.Equal(t, "2024-02-15", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"date": "2024-02-15", "source": "COLD"}`))
	}))
	defer srv.Close()

	source, err := NewClient(srv.URL).Route(context.Background(), "2024-02-15")
	require.NoError(t, err)
	assert.Equal(t, "COLD", source)
}

func TestClientListTablesEscapesSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sources/HOT/tables", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"source": "HOT", "tables": ["sales"]}`))
	}))
	defer srv.Close()

	tables, err := NewClient(srv.URL).ListTables(context.Background(), "HOT")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, tables)
}

func TestClientRepartitionBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tables/sales/repartition", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(4), body["num_partitions"])
		assert.Equal(t, []interface{}{"region"}, body["partition_by"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "row_count": 1000}`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL).Repartition(context.Background(), "sales", 4, []string{"region"})
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/metrics", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 0}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL + "/").Metrics(context.Background(), 0)
	require.NoError(t, err)
}
