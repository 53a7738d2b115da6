package api

import (
	"errors"
	"net/http"

	"tierquery/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var (
		routing      *domain.RoutingError
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		mismatch     *domain.SchemaMismatchError
		noColumns    *domain.NoSuitablePartitionColumnsError
		circuitOpen  *domain.CircuitOpenError
		exhausted    *domain.RetriesExhaustedError
		timeout      *domain.QueryTimeoutError
		partial      *domain.PartialRepartitionError
		coordination *domain.CacheCoordinationError
	)

	switch {
	case errors.As(err, &routing), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &mismatch):
		return http.StatusConflict
	case errors.As(err, &noColumns):
		return http.StatusUnprocessableEntity
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &partial), errors.As(err, &coordination):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
