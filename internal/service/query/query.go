// Package query implements the federation service: routing, cached and
// resilient execution, and result merging across the hot and cold tiers.
package query

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"tierquery/internal/cache"
	"tierquery/internal/domain"
	"tierquery/internal/metrics"
	"tierquery/internal/resilience"
	"tierquery/internal/router"
	"tierquery/internal/sqlrewrite"
)

// Options carries the execution parameters the federation service needs from
// the configuration bundle.
type Options struct {
	QueryTimeout    time.Duration
	CacheTTL        time.Duration
	DefaultRowLimit int
}

// FederationService routes queries to the right tier and executes them
// through the retry/breaker pipeline, memoizing expensive results.
type FederationService struct {
	router   *router.Router
	hot      domain.BackendClient
	cold     domain.BackendClient
	retrier  *resilience.Retrier
	breakers map[domain.DataSource]*resilience.CircuitBreaker
	cache    *cache.MaterializationCache
	recorder *metrics.Recorder
	opts     Options
	logger   *slog.Logger
}

// NewFederationService wires the federation pipeline. Each backend gets its
// own circuit breaker; the cache and recorder are shared with the rest of
// the application.
func NewFederationService(
	rt *router.Router,
	hot, cold domain.BackendClient,
	retrier *resilience.Retrier,
	hotBreaker, coldBreaker *resilience.CircuitBreaker,
	c *cache.MaterializationCache,
	rec *metrics.Recorder,
	opts Options,
	logger *slog.Logger,
) *FederationService {
	return &FederationService{
		router:  rt,
		hot:     hot,
		cold:    cold,
		retrier: retrier,
		breakers: map[domain.DataSource]*resilience.CircuitBreaker{
			domain.SourceHot:  hotBreaker,
			domain.SourceCold: coldBreaker,
		},
		cache:    c,
		recorder: rec,
		opts:     opts,
		logger:   logger,
	}
}

// RouteAndExecute classifies the request, consults the cache, and on a miss
// dispatches through the retry policy, circuit breaker, and backend client.
// The whole chain is bounded by the configured query timeout.
func (s *FederationService) RouteAndExecute(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	if sqlrewrite.Normalize(req.SQL) == "" {
		return nil, domain.ErrValidation("sql query is required")
	}

	source, err := s.router.Route(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	var result *domain.QueryResult
	if source == domain.SourceBoth {
		result, err = s.executeFederated(ctx, req)
	} else {
		result, err = s.executeSingle(ctx, source, req, req.Materialize)
	}

	elapsed := time.Since(start)
	op := operationName(source)
	switch {
	case err == nil:
		s.recorder.Record(op, domain.OutcomeSuccess, elapsed)
		return result, nil
	case timedOut(ctx, err):
		s.recorder.Record(op, domain.OutcomeTimeout, elapsed)
		return nil, &domain.QueryTimeoutError{Elapsed: elapsed}
	default:
		s.recorder.Record(op, domain.OutcomeFailure, elapsed)
		return nil, err
	}
}

// executeSingle runs the request against one tier, consulting the
// materialization cache first. Only complex queries (or explicit
// materialization requests) are stored.
func (s *FederationService) executeSingle(ctx context.Context, source domain.DataSource, req domain.QueryRequest, forceStore bool) (*domain.QueryResult, error) {
	client, err := s.clientFor(source)
	if err != nil {
		return nil, err
	}

	sqlText := sqlrewrite.EnsureLimit(req.SQL, s.opts.DefaultRowLimit)
	store := forceStore || sqlrewrite.IsComplex(req.SQL)

	run := func(ctx context.Context) (*domain.QueryResult, error) {
		return s.retrier.Execute(ctx, s.breakers[source], func(ctx context.Context) (*domain.QueryResult, error) {
			return client.RunQuery(ctx, sqlText)
		})
	}

	if !store {
		return run(ctx)
	}

	result, hit, err := s.cache.GetOrCompute(ctx, source, sqlText, s.opts.CacheTTL, true, run)
	if err != nil {
		return nil, err
	}
	if hit {
		s.logger.Debug("cache hit", "source", source, "key", cache.Key(source, sqlText))
	}
	return result, nil
}

// executeFederated runs the request against both tiers in parallel and
// concatenates the row sets, hot rows first. Schemas must match by name,
// type, and order — a mismatch is fatal, never silently coerced.
func (s *FederationService) executeFederated(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	sqlText := sqlrewrite.EnsureLimit(req.SQL, s.opts.DefaultRowLimit)
	store := req.Materialize || sqlrewrite.IsComplex(req.SQL)

	compute := func(ctx context.Context) (*domain.QueryResult, error) {
		start := time.Now()

		var hotRes, coldRes *domain.QueryResult
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			hotRes, err = s.retrier.Execute(gctx, s.breakers[domain.SourceHot], func(ctx context.Context) (*domain.QueryResult, error) {
				return s.hot.RunQuery(ctx, sqlText)
			})
			return err
		})
		g.Go(func() error {
			var err error
			coldRes, err = s.retrier.Execute(gctx, s.breakers[domain.SourceCold], func(ctx context.Context) (*domain.QueryResult, error) {
				return s.cold.RunQuery(ctx, sqlText)
			})
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return mergeFederated(hotRes, coldRes, time.Since(start))
	}

	if !store {
		return compute(ctx)
	}
	// Federated entries live under their own scope so they never alias a
	// single-tier execution of the same text.
	result, _, err := s.cache.GetOrCompute(ctx, domain.SourceFederated, sqlText, s.opts.CacheTTL, true, compute)
	return result, err
}

// mergeFederated concatenates two tier results into one federated result.
func mergeFederated(hot, cold *domain.QueryResult, elapsed time.Duration) (*domain.QueryResult, error) {
	if !domain.SchemaEqual(hot.Columns, cold.Columns) {
		return nil, domain.ErrSchemaMismatch(
			"federated merge: hot schema %v does not match cold schema %v",
			columnNames(hot.Columns), columnNames(cold.Columns))
	}

	rows := make([][]interface{}, 0, len(hot.Rows)+len(cold.Rows))
	rows = append(rows, hot.Rows...)
	rows = append(rows, cold.Rows...)

	return &domain.QueryResult{
		Columns:  hot.Columns,
		Rows:     rows,
		RowCount: len(rows),
		Elapsed:  elapsed,
		Source:   domain.SourceFederated,
	}, nil
}

// RecommendedDataSource exposes the router's pure date classification.
func (s *FederationService) RecommendedDataSource(date time.Time) (domain.DataSource, error) {
	return s.router.RecommendedDataSource(date)
}

// ListTables returns the table names in the given tier.
func (s *FederationService) ListTables(ctx context.Context, source domain.DataSource) ([]string, error) {
	client, err := s.clientFor(source)
	if err != nil {
		return nil, err
	}
	return client.ListTables(ctx)
}

// TableStats returns row count, schema, and column statistics for a table.
func (s *FederationService) TableStats(ctx context.Context, source domain.DataSource, table string) (*domain.TableStats, error) {
	client, err := s.clientFor(source)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	stats, err := client.TableStats(ctx, table)
	if err != nil {
		s.recorder.Record("table_stats", domain.OutcomeFailure, time.Since(start))
		return nil, err
	}
	s.recorder.Record("table_stats", domain.OutcomeSuccess, time.Since(start))
	return stats, nil
}

// TableSample returns n rows sampled at random from a table.
func (s *FederationService) TableSample(ctx context.Context, source domain.DataSource, table string, n int) (*domain.QueryResult, error) {
	client, err := s.clientFor(source)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 5
	}
	sqlText, err := sqlrewrite.BuildSelectQuery(table, nil, nil, "", 0)
	if err != nil {
		return nil, err
	}
	sqlText += " ORDER BY random() LIMIT " + strconv.Itoa(n)
	return client.RunQuery(ctx, sqlText)
}

// ColumnDistinctValues returns a value/count histogram for one column.
func (s *FederationService) ColumnDistinctValues(ctx context.Context, source domain.DataSource, table, column string, limit int) (*domain.QueryResult, error) {
	client, err := s.clientFor(source)
	if err != nil {
		return nil, err
	}
	sqlText, err := sqlrewrite.BuildDistinctValuesQuery(table, column, limit)
	if err != nil {
		return nil, err
	}
	return client.RunQuery(ctx, sqlText)
}

// MaterializeOutcome reports the result of an explicit materialization.
type MaterializeOutcome struct {
	Success  bool            `json:"success"`
	RowCount int             `json:"row_count"`
	Columns  []domain.Column `json:"columns"`
}

// MaterializeQuery executes the request and stores its result regardless of
// complexity. Calling it twice with the same normalized text before TTL
// expiry performs at most one backend execution.
func (s *FederationService) MaterializeQuery(ctx context.Context, req domain.QueryRequest) (*MaterializeOutcome, error) {
	if sqlrewrite.Normalize(req.SQL) == "" {
		return nil, domain.ErrValidation("sql query is required")
	}

	source, err := s.router.Route(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	var result *domain.QueryResult
	if source == domain.SourceBoth {
		fed := req
		fed.Materialize = true
		result, err = s.executeFederated(ctx, fed)
	} else {
		result, err = s.executeSingle(ctx, source, req, true)
	}
	if err != nil {
		return nil, err
	}

	return &MaterializeOutcome{Success: true, RowCount: result.RowCount, Columns: result.Columns}, nil
}

// Cache exposes the materialization cache for maintenance-triggered
// invalidation.
func (s *FederationService) Cache() *cache.MaterializationCache { return s.cache }

// BreakerStates reports the current circuit-breaker state per backend.
func (s *FederationService) BreakerStates() map[domain.DataSource]resilience.BreakerState {
	states := make(map[domain.DataSource]resilience.BreakerState, len(s.breakers))
	for source, b := range s.breakers {
		states[source] = b.State()
	}
	return states
}

func (s *FederationService) clientFor(source domain.DataSource) (domain.BackendClient, error) {
	switch source {
	case domain.SourceHot:
		return s.hot, nil
	case domain.SourceCold:
		return s.cold, nil
	default:
		return nil, domain.ErrValidation("no backend client for data source %q", source)
	}
}

func operationName(source domain.DataSource) string {
	switch source {
	case domain.SourceHot:
		return "query.hot"
	case domain.SourceCold:
		return "query.cold"
	default:
		return "query.federated"
	}
}

// timedOut reports whether the error chain stems from the request deadline.
func timedOut(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func columnNames(cols []domain.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
