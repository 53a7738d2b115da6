package backend

import (
	"context"
	"errors"
	"strings"

	"tierquery/internal/domain"
)

// transientMarkers identify retryable failures: the connection or the network
// broke, or the backend was too slow. Everything matching permanentMarkers
// (and anything unrecognized) is treated as permanent, so malformed queries
// are never retried.
var transientMarkers = []string{
	"connection", "timeout", "timed out", "network", "broken pipe",
	"reset by peer", "temporarily unavailable", "database is locked",
	"too many connections", "i/o error",
}

var permanentMarkers = []string{
	"syntax", "parser", "parse error", "invalid", "permission", "access denied",
	"no such table", "no such column", "does not exist", "not found",
	"type mismatch", "constraint",
}

// classify wraps a raw driver error in a BackendError for the given tier,
// deciding transient vs. permanent from the error chain and message.
func classify(backend domain.DataSource, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTransient(backend, err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.ErrPermanent(backend, err)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range permanentMarkers {
		if strings.Contains(msg, m) {
			return domain.ErrPermanent(backend, err)
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return domain.ErrTransient(backend, err)
		}
	}
	return domain.ErrPermanent(backend, err)
}
