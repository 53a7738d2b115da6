// Package cache implements the materialization cache: a keyed store of
// previously computed query results with TTL expiry, predicate invalidation,
// and singleflight coordination so at most one computation per key is ever
// in flight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"tierquery/internal/domain"
	"tierquery/internal/sqlrewrite"
)

// Key derives the deterministic cache key for a query: the hex SHA-256 of the
// execution scope plus the query's whitespace-collapsed, case-preserved text.
// Identical normalized text under the same scope always maps to the same key.
// The scope keeps single-tier and federated executions of the same text from
// aliasing one entry: a cold-only result must never answer a federated
// request, and a merged result must never leak into a single-tier one.
func Key(scope domain.DataSource, sql string) string {
	sum := sha256.Sum256([]byte(string(scope) + "\n" + sqlrewrite.Normalize(sql)))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	result    *domain.QueryResult
	tables    []string
	createdAt time.Time
	ttl       time.Duration
}

// MaterializationCache memoizes expensive query results. Expiry is lazy:
// checked on lookup, with expired entries removed on access.
type MaterializationCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates an empty MaterializationCache.
func New(clk clock.Clock, logger *slog.Logger) *MaterializationCache {
	return &MaterializationCache{
		entries: make(map[string]*entry),
		clock:   clk,
		logger:  logger,
	}
}

// Get returns the cached result for the query under the given scope, or
// (nil, false) on a miss. An expired entry counts as a miss and is evicted.
func (c *MaterializationCache) Get(scope domain.DataSource, sql string) (*domain.QueryResult, bool) {
	return c.getByKey(Key(scope, sql))
}

func (c *MaterializationCache) getByKey(key string) (*domain.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.createdAt) > e.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.result, true
}

// Put stores a result under the scoped derived key with the given TTL. The
// tables referenced by the query are recorded for predicate invalidation.
func (c *MaterializationCache) Put(scope domain.DataSource, sql string, result *domain.QueryResult, ttl time.Duration) {
	key := Key(scope, sql)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		result:    result,
		tables:    sqlrewrite.ExtractTableNames(sql),
		createdAt: c.clock.Now(),
		ttl:       ttl,
	}
}

// Invalidate removes every entry whose key or referenced tables match the
// predicate and returns how many were removed.
func (c *MaterializationCache) Invalidate(pred func(key string, tables []string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if pred(key, e.tables) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// InvalidateTable removes every entry referencing the given table. Invoked
// after a successful repartition so stale post-rewrite results are never
// served.
func (c *MaterializationCache) InvalidateTable(table string) int {
	n := c.Invalidate(func(_ string, tables []string) bool {
		for _, t := range tables {
			if t == table {
				return true
			}
		}
		return false
	})
	if n > 0 {
		c.logger.Info("invalidated cache entries", "table", table, "count", n)
	}
	return n
}

// Len returns the number of live entries (expired entries may be counted
// until their next access).
func (c *MaterializationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrCompute returns the cached result for the query or computes it via fn,
// storing the result when store is true. Concurrent callers that miss on the
// same key coordinate through singleflight: exactly one executes fn, the rest
// wait and share its outcome. Waiters on a failed computation receive a
// CacheCoordinationError wrapping the leader's error; the leader gets the
// error verbatim.
func (c *MaterializationCache) GetOrCompute(ctx context.Context, scope domain.DataSource, sql string, ttl time.Duration, store bool, fn func(context.Context) (*domain.QueryResult, error)) (*domain.QueryResult, bool, error) {
	key := Key(scope, sql)
	if res, ok := c.getByKey(key); ok {
		return res, true, nil
	}

	leader := false
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		leader = true
		// Another caller may have stored the entry between our miss and
		// acquiring the flight.
		if res, ok := c.getByKey(key); ok {
			return res, nil
		}
		res, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if store {
			c.Put(scope, sql, res, ttl)
		}
		return res, nil
	})
	if err != nil {
		if !leader {
			return nil, false, &domain.CacheCoordinationError{Key: key, Err: err}
		}
		return nil, false, err
	}
	return v.(*domain.QueryResult), !leader, nil
}
