// Package cli implements the tq command-line client for the tiered query API.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a structured error returned by the server.
type APIError struct {
	HTTPStatus int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.HTTPStatus, e.Message)
}

// Client is a thin HTTP client for the tiered query API.
type Client struct {
	host string
	http *http.Client
}

// NewClient creates a client for the given host, e.g. "http://localhost:8080".
func NewClient(host string) *Client {
	return &Client{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: string(data)}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	SQL            string   `json:"sql"`
	TargetDate     *string  `json:"target_date,omitempty"`
	Source         *string  `json:"source,omitempty"`
	PartitionHints []string `json:"partition_hints,omitempty"`
	Materialize    bool     `json:"materialize,omitempty"`
}

// QueryResult mirrors the server's query response.
type QueryResult struct {
	Columns []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
	Elapsed  float64         `json:"elapsed_seconds"`
	Source   string          `json:"source"`
}

// Query executes a federated query.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/v1/query", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Materialize executes a query and pins the result in the server cache.
func (c *Client) Materialize(ctx context.Context, req QueryRequest) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodPost, "/v1/materialize", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Route asks the server which tier serves queries for a date.
func (c *Client) Route(ctx context.Context, date string) (string, error) {
	var out struct {
		Source string `json:"source"`
	}
	q := url.Values{"date": {date}}
	if err := c.do(ctx, http.MethodGet, "/v1/route", q, nil, &out); err != nil {
		return "", err
	}
	return out.Source, nil
}

// ListTables lists tables on one tier.
func (c *Client) ListTables(ctx context.Context, source string) ([]string, error) {
	var out struct {
		Tables []string `json:"tables"`
	}
	path := "/v1/sources/" + url.PathEscape(source) + "/tables"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tables, nil
}

// TableStats fetches row count, schema, and numeric aggregates for a table.
func (c *Client) TableStats(ctx context.Context, source, table string) (map[string]interface{}, error) {
	var out map[string]interface{}
	path := "/v1/sources/" + url.PathEscape(source) + "/tables/" + url.PathEscape(table) + "/stats"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Repartition triggers a physical rewrite of a cold-tier table.
func (c *Client) Repartition(ctx context.Context, table string, numPartitions int, partitionBy []string) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if numPartitions > 0 {
		body["num_partitions"] = numPartitions
	}
	if len(partitionBy) > 0 {
		body["partition_by"] = partitionBy
	}
	var out map[string]interface{}
	path := "/v1/tables/" + url.PathEscape(table) + "/repartition"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics fetches aggregate operation statistics.
func (c *Client) Metrics(ctx context.Context, windowSeconds int) (map[string]interface{}, error) {
	q := url.Values{}
	if windowSeconds > 0 {
		q.Set("window_seconds", fmt.Sprintf("%d", windowSeconds))
	}
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/v1/metrics", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
