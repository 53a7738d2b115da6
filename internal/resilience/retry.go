package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"tierquery/internal/domain"
)

// Operation is a no-argument backend call executed under retry protection.
type Operation func(ctx context.Context) (*domain.QueryResult, error)

// Retrier executes backend operations with bounded exponential backoff,
// consulting a circuit breaker before and after each attempt.
type Retrier struct {
	maxRetries int
	delay      time.Duration
	maxDelay   time.Duration
	clock      clock.Clock
	logger     *slog.Logger
}

// NewRetrier creates a Retrier. maxRetries is the total number of attempts,
// delay the base backoff, and maxDelay the backoff ceiling.
func NewRetrier(maxRetries int, delay, maxDelay time.Duration, clk clock.Clock, logger *slog.Logger) *Retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Retrier{
		maxRetries: maxRetries,
		delay:      delay,
		maxDelay:   maxDelay,
		clock:      clk,
		logger:     logger,
	}
}

// Execute runs op under the breaker's protection. Breaker denial fails
// immediately without consuming a retry slot. Transient failures are retried
// with delay*2^(attempt-1) backoff up to maxRetries attempts; permanent
// failures propagate unretried. Every attempt's outcome is reported to the
// breaker. Exhausting retries returns a RetriesExhaustedError wrapping the
// last underlying error.
func (r *Retrier) Execute(ctx context.Context, breaker *CircuitBreaker, op Operation) (*domain.QueryResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		if err := breaker.Allow(); err != nil {
			return nil, err
		}

		res, err := op(ctx)
		if err == nil {
			breaker.RecordSuccess()
			return res, nil
		}
		breaker.RecordFailure()
		lastErr = err

		if !domain.IsTransient(err) {
			return nil, err
		}
		if attempt == r.maxRetries {
			break
		}

		wait := r.backoff(attempt)
		r.logger.Warn("transient backend failure, backing off",
			"backend", breaker.Backend(), "attempt", attempt, "wait", wait, "error", err)
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &domain.RetriesExhaustedError{
		Backend:  breaker.Backend(),
		Attempts: r.maxRetries,
		Err:      lastErr,
	}
}

// backoff returns delay*2^(attempt-1), capped at maxDelay.
func (r *Retrier) backoff(attempt int) time.Duration {
	wait := r.delay
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= r.maxDelay {
			return r.maxDelay
		}
	}
	if wait > r.maxDelay {
		return r.maxDelay
	}
	return wait
}

// sleep waits for d on the injected clock, or returns early when ctx ends.
func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	t := r.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
