package domain

import "time"

// Outcome classifies how an operation finished.
type Outcome string

// Operation outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// MetricSample records one operation's timing and outcome.
type MetricSample struct {
	Operation string
	Outcome   Outcome
	Duration  time.Duration
	At        time.Time
}

// MetricsSnapshot holds read-only aggregates over a sliding window.
type MetricsSnapshot struct {
	Count     int           `json:"count"`
	Mean      time.Duration `json:"mean"`
	P95       time.Duration `json:"p95"`
	ErrorRate float64       `json:"error_rate"`
}
