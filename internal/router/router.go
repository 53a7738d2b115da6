// Package router decides which storage tier serves a query, based on the
// retention-window policy and the request's target date.
package router

import (
	"time"

	"github.com/benbjohnson/clock"

	"tierquery/internal/domain"
)

// hoursPerDay converts retention windows expressed in days to durations.
const hoursPerDay = 24 * time.Hour

// Router maps a query/date context to a data source. Routing decisions are
// pure functions of the policy and the injected clock; no I/O is performed.
type Router struct {
	policy domain.RetentionPolicy
	clock  clock.Clock
}

// New creates a Router for the given retention policy.
func New(policy domain.RetentionPolicy, clk clock.Clock) *Router {
	return &Router{policy: policy, clock: clk}
}

// Route decides hot vs. cold vs. both for a request.
//   - An explicit backend override always wins; no further policy applies.
//   - A target date is classified against the retention windows.
//   - A dateless request defaults to the hot tier (recent data).
//
// An out-of-retention date returns SourceCold together with a RoutingError:
// the caller may still elect to query cold, since the cold window may exceed
// the retention guarantee.
func (r *Router) Route(req domain.QueryRequest) (domain.DataSource, error) {
	if req.Source != nil {
		return *req.Source, nil
	}
	if req.TargetDate != nil {
		return r.RecommendedDataSource(*req.TargetDate)
	}
	return domain.SourceHot, nil
}

// RecommendedDataSource classifies a date against the retention windows:
// within [now−hotWindow, now] → Hot; within (now−coldWindow, now−hotWindow)
// → Cold; older → Cold with a RoutingError signaling out-of-retention.
// Future dates land in the hot suffix. Pure — safe to call without executing
// any query.
func (r *Router) RecommendedDataSource(date time.Time) (domain.DataSource, error) {
	now := r.clock.Now()
	hotCutoff := now.Add(-time.Duration(r.policy.HotWindowDays) * hoursPerDay)
	coldCutoff := now.Add(-time.Duration(r.policy.ColdWindowDays) * hoursPerDay)

	switch {
	case !date.Before(hotCutoff):
		return domain.SourceHot, nil
	case date.After(coldCutoff):
		return domain.SourceCold, nil
	default:
		return domain.SourceCold, domain.ErrRouting(
			"date %s is outside the retention range (cold window is %d days)",
			date.Format("2006-01-02"), r.policy.ColdWindowDays)
	}
}

// Policy returns the retention policy the router applies.
func (r *Router) Policy() domain.RetentionPolicy { return r.policy }
