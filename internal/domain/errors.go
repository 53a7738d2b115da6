// Package domain defines core types, interfaces, and errors for the
// tiered query layer.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// RoutingError indicates the router could not map a request to a data source,
// typically because the target date falls outside the retention windows.
type RoutingError struct {
	Message string
}

func (e *RoutingError) Error() string { return e.Message }

// BackendError wraps a failure returned by one of the storage backends.
// Transient errors (network, timeout) are retryable; permanent errors
// (malformed SQL, permission) are not.
type BackendError struct {
	Backend   DataSource
	Transient bool
	Message   string
	Err       error
}

func (e *BackendError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("backend %s: %s error: %s", e.Backend, kind, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// CircuitOpenError indicates a call was short-circuited because the backend's
// circuit breaker is open. No backend call was attempted.
type CircuitOpenError struct {
	Backend DataSource
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for backend %s", e.Backend)
}

// RetriesExhaustedError is returned after all retry attempts against a backend
// have failed. It wraps the last underlying error.
type RetriesExhaustedError struct {
	Backend  DataSource
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("backend %s: retries exhausted after %d attempts: %v", e.Backend, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// SchemaMismatchError indicates a federated merge was attempted over result
// sets with incompatible column schemas. Columns are never silently dropped,
// padded, or reordered.
type SchemaMismatchError struct {
	Message string
}

func (e *SchemaMismatchError) Error() string { return e.Message }

// NoSuitablePartitionColumnsError indicates the repartition planner could not
// infer partition columns for a table.
type NoSuitablePartitionColumnsError struct {
	Table string
}

func (e *NoSuitablePartitionColumnsError) Error() string {
	return fmt.Sprintf("no suitable partition columns for table %q", e.Table)
}

// PartialRepartitionError indicates a repartition rewrite failed mid-flight.
// The table is either rolled back to its pre-rewrite state or left clearly
// marked incomplete; it is never silently half-repartitioned.
type PartialRepartitionError struct {
	Table string
	Err   error
}

func (e *PartialRepartitionError) Error() string {
	return fmt.Sprintf("repartition of table %q failed mid-rewrite: %v", e.Table, e.Err)
}

func (e *PartialRepartitionError) Unwrap() error { return e.Err }

// QueryTimeoutError indicates the route-through-execute chain exceeded the
// configured query timeout.
type QueryTimeoutError struct {
	Elapsed time.Duration
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("query timed out after %s", e.Elapsed)
}

// CacheCoordinationError is surfaced to singleflight waiters when the leading
// computation for their cache key failed.
type CacheCoordinationError struct {
	Key string
	Err error
}

func (e *CacheCoordinationError) Error() string {
	return fmt.Sprintf("shared computation for cache key %s failed: %v", e.Key, e.Err)
}

func (e *CacheCoordinationError) Unwrap() error { return e.Err }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrRouting creates a RoutingError with a formatted message.
func ErrRouting(format string, args ...interface{}) *RoutingError {
	return &RoutingError{Message: fmt.Sprintf(format, args...)}
}

// ErrTransient creates a transient BackendError wrapping err.
func ErrTransient(backend DataSource, err error) *BackendError {
	return &BackendError{Backend: backend, Transient: true, Message: err.Error(), Err: err}
}

// ErrPermanent creates a permanent BackendError wrapping err.
func ErrPermanent(backend DataSource, err error) *BackendError {
	return &BackendError{Backend: backend, Transient: false, Message: err.Error(), Err: err}
}

// ErrSchemaMismatch creates a SchemaMismatchError with a formatted message.
func ErrSchemaMismatch(format string, args ...interface{}) *SchemaMismatchError {
	return &SchemaMismatchError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsTransient reports whether err is (or wraps) a transient BackendError.
func IsTransient(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Transient
}
