package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierquery/internal/domain"
)

func newTestCache() (*MaterializationCache, *clock.Mock) {
	mock := clock.NewMock()
	return New(mock, slog.New(slog.DiscardHandler)), mock
}

func TestKeyNormalization(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Key(domain.SourceHot, "SELECT * FROM sales"), Key(domain.SourceHot, "  SELECT   *\nFROM\tsales  "))
	assert.NotEqual(t, Key(domain.SourceHot, "SELECT * FROM sales"), Key(domain.SourceHot, "select * from sales"),
		"case differences must produce distinct keys")
}

func TestKeyScopeIsolation(t *testing.T) {
	t.Parallel()
	sql := "SELECT * FROM sales JOIN regions ON 1=1"
	assert.NotEqual(t, Key(domain.SourceHot, sql), Key(domain.SourceCold, sql))
	assert.NotEqual(t, Key(domain.SourceCold, sql), Key(domain.SourceFederated, sql),
		"single-tier and federated executions of the same text must not share a key")
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()
	res := &domain.QueryResult{RowCount: 3}

	c.Put(domain.SourceHot, "SELECT * FROM sales", res, 5*time.Minute)

	got, ok := c.Get(domain.SourceHot, "SELECT  *  FROM  sales")
	require.True(t, ok, "whitespace variants must hit the same entry")
	assert.Same(t, res, got)

	_, ok = c.Get(domain.SourceHot, "SELECT * FROM regions")
	assert.False(t, ok)

	_, ok = c.Get(domain.SourceFederated, "SELECT * FROM sales")
	assert.False(t, ok, "an entry stored under one scope must miss under another")
}

func TestTTLExpiry(t *testing.T) {
	t.Parallel()
	c, mock := newTestCache()
	c.Put(domain.SourceHot, "SELECT * FROM sales", &domain.QueryResult{}, 5*time.Minute)

	mock.Add(5 * time.Minute)
	_, ok := c.Get(domain.SourceHot, "SELECT * FROM sales")
	assert.True(t, ok, "an entry exactly at its TTL is still live")

	mock.Add(time.Second)
	_, ok = c.Get(domain.SourceHot, "SELECT * FROM sales")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entries are evicted on access")
}

func TestInvalidateTable(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()
	c.Put(domain.SourceHot, "SELECT * FROM sales", &domain.QueryResult{}, time.Minute)
	c.Put(domain.SourceFederated, "SELECT * FROM sales JOIN regions ON 1=1", &domain.QueryResult{}, time.Minute)
	c.Put(domain.SourceCold, "SELECT * FROM orders", &domain.QueryResult{}, time.Minute)

	removed := c.InvalidateTable("sales")
	assert.Equal(t, 2, removed, "invalidation spans every scope referencing the table")
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get(domain.SourceCold, "SELECT * FROM orders")
	assert.True(t, ok)
}

func TestGetOrComputeStoresAndReuses(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()
	calls := 0
	fn := func(ctx context.Context) (*domain.QueryResult, error) {
		calls++
		return &domain.QueryResult{RowCount: 9}, nil
	}

	res, hit, err := c.GetOrCompute(context.Background(), domain.SourceCold, "SELECT * FROM sales JOIN r ON 1=1", time.Minute, true, fn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 9, res.RowCount)

	res, hit, err = c.GetOrCompute(context.Background(), domain.SourceCold, "SELECT * FROM sales JOIN r ON 1=1", time.Minute, true, fn)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 9, res.RowCount)
	assert.Equal(t, 1, calls, "the second call must be served from the cache")

	_, hit, err = c.GetOrCompute(context.Background(), domain.SourceFederated, "SELECT * FROM sales JOIN r ON 1=1", time.Minute, true, fn)
	require.NoError(t, err)
	assert.False(t, hit, "a different scope must compute its own entry")
	assert.Equal(t, 2, calls)
}

func TestGetOrComputeNoStore(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()
	calls := 0
	fn := func(ctx context.Context) (*domain.QueryResult, error) {
		calls++
		return &domain.QueryResult{}, nil
	}

	_, _, err := c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, false, fn)
	require.NoError(t, err)
	_, _, err = c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, false, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrComputeLeaderGetsRawError(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()
	boom := errors.New("backend down")

	_, _, err := c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, true, func(ctx context.Context) (*domain.QueryResult, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	var coord *domain.CacheCoordinationError
	assert.False(t, errors.As(err, &coord), "the leader must receive the error verbatim")
	assert.Equal(t, 0, c.Len(), "failed computations must not be cached")
}

func TestGetOrComputeWaitersGetCoordinationError(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()
	boom := errors.New("backend down")

	started := make(chan struct{})
	release := make(chan struct{})
	leaderErr := make(chan error, 1)

	go func() {
		_, _, err := c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, true, func(ctx context.Context) (*domain.QueryResult, error) {
			close(started)
			<-release
			return nil, boom
		})
		leaderErr <- err
	}()

	<-started

	var wg sync.WaitGroup
	waiterErrs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, true, func(ctx context.Context) (*domain.QueryResult, error) {
				t.Error("waiters must never execute the computation")
				return nil, nil
			})
			waiterErrs[i] = err
		}(i)
	}

	// Give the waiters time to join the flight before the leader fails.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.ErrorIs(t, <-leaderErr, boom)
	for _, err := range waiterErrs {
		var coord *domain.CacheCoordinationError
		require.ErrorAs(t, err, &coord)
		assert.ErrorIs(t, err, boom, "the leader's error must stay in the waiter's chain")
	}
}

func TestGetOrComputeConcurrentSingleExecution(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache()

	var mu sync.Mutex
	calls := 0
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(ctx context.Context) (*domain.QueryResult, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return &domain.QueryResult{RowCount: 1}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, _ = c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, true, fn)
	}()
	<-started

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), domain.SourceHot, "SELECT 1", time.Minute, true, fn)
			assert.NoError(t, err)
			assert.Equal(t, 1, res.RowCount)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, calls, "concurrent misses on one key must execute exactly once")
}
