// Package metrics keeps an in-memory, time-pruned ring of recent operation
// timings and outcomes. Purely observational — it never affects query
// execution.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"tierquery/internal/domain"
)

// Recorder is an append-only sample log with oldest-first eviction. Samples
// older than the retention window are pruned opportunistically on each write.
type Recorder struct {
	retention time.Duration
	clock     clock.Clock

	mu      sync.Mutex
	samples []domain.MetricSample // ordered oldest-first
}

// NewRecorder creates a Recorder that retains samples for the given window.
func NewRecorder(retention time.Duration, clk clock.Clock) *Recorder {
	return &Recorder{retention: retention, clock: clk}
}

// Record appends a sample and prunes anything older than the retention window.
func (r *Recorder) Record(operation string, outcome domain.Outcome, duration time.Duration) {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, domain.MetricSample{
		Operation: operation,
		Outcome:   outcome,
		Duration:  duration,
		At:        now,
	})
	r.pruneLocked(now)
}

func (r *Recorder) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.retention)
	i := 0
	for i < len(r.samples) && !r.samples[i].At.After(cutoff) {
		i++
	}
	if i > 0 {
		r.samples = append(r.samples[:0:0], r.samples[i:]...)
	}
}

// Snapshot aggregates samples recorded within the window (bounded by the
// retention period). A zero window means the full retained history.
func (r *Recorder) Snapshot(window time.Duration) domain.MetricsSnapshot {
	if window <= 0 || window > r.retention {
		window = r.retention
	}
	cutoff := r.clock.Now().Add(-window)

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		durations []time.Duration
		total     time.Duration
		failures  int
	)
	for _, s := range r.samples {
		if s.At.Before(cutoff) {
			continue
		}
		durations = append(durations, s.Duration)
		total += s.Duration
		if s.Outcome != domain.OutcomeSuccess {
			failures++
		}
	}

	snap := domain.MetricsSnapshot{Count: len(durations)}
	if len(durations) == 0 {
		return snap
	}

	snap.Mean = total / time.Duration(len(durations))
	snap.ErrorRate = float64(failures) / float64(len(durations))

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	idx := (len(durations)*95 + 99) / 100 // ceil(0.95n), 1-based
	if idx > len(durations) {
		idx = len(durations)
	}
	snap.P95 = durations[idx-1]
	return snap
}

// Len returns the number of retained samples.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
