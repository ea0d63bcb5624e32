package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests no route claimed, keeping raw paths out of
// metric labels.
const unmatchedRoute = "unmatched"

type routePatternKey struct{}

// WithRoutePattern pins the route label for ctx. Tests and handlers mounted
// outside chi use it; chi requests resolve their pattern on their own.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the pinned or chi-matched pattern, or "".
// The chi pattern is complete only once routing has reached the endpoint,
// so middleware should call it after next.ServeHTTP returns.
func RoutePatternFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(routePatternKey{}).(string); ok && v != "" {
		return v
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// routeLabel is RoutePatternFromContext with a bounded fallback.
func routeLabel(r *http.Request) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	return unmatchedRoute
}
