// Package resilience wraps backend calls with circuit-breaker and retry
// protection so one failing tier degrades gracefully instead of cascading.
package resilience

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"tierquery/internal/domain"
)

// BreakerState is the circuit breaker's current gating mode.
type BreakerState string

// Breaker states.
const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// CircuitBreaker tracks the failure rate of one backend and gates whether
// calls are attempted. Each backend owns an independent instance; one tier's
// failures never throttle the other. All state is exclusively owned and
// mutated here; callers observe only Allow/Record outcomes.
type CircuitBreaker struct {
	backend   domain.DataSource
	threshold int
	cooldown  time.Duration
	clock     clock.Clock

	mu             sync.Mutex
	state          BreakerState
	failures       int
	lastTransition time.Time
	probeInFlight  bool
}

// NewCircuitBreaker creates a closed breaker for the given backend.
// threshold is the consecutive-failure count that opens the circuit and
// cooldown is how long the circuit stays open before admitting a probe.
func NewCircuitBreaker(backend domain.DataSource, threshold int, cooldown time.Duration, clk clock.Clock) *CircuitBreaker {
	return &CircuitBreaker{
		backend:   backend,
		threshold: threshold,
		cooldown:  cooldown,
		clock:     clk,
		state:     StateClosed,
	}
}

// Allow reports whether a call may be attempted right now. When the circuit
// is open and cooled down it transitions to half-open and admits exactly one
// probe; concurrent callers are denied until the probe resolves.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.clock.Now().Sub(b.lastTransition) < b.cooldown {
			return &domain.CircuitOpenError{Backend: b.backend}
		}
		b.transition(StateHalfOpen)
		b.probeInFlight = true
		return nil
	default: // StateHalfOpen
		if b.probeInFlight {
			return &domain.CircuitOpenError{Backend: b.backend}
		}
		b.probeInFlight = true
		return nil
	}
}

// RecordSuccess notes a successful call. A half-open probe success closes the
// circuit and resets the failure count.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probeInFlight = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// RecordFailure notes a failed call. Reaching the threshold while closed
// opens the circuit; a half-open probe failure reopens it and restarts the
// cooldown timer.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probeInFlight = false
		b.transition(StateOpen)
	case StateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.transition(StateOpen)
		}
	}
}

// State returns the breaker's current state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Backend returns which tier this breaker guards.
func (b *CircuitBreaker) Backend() domain.DataSource { return b.backend }

func (b *CircuitBreaker) transition(next BreakerState) {
	b.state = next
	b.lastTransition = b.clock.Now()
}
