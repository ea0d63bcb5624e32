package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paypal-orders/internal/obs"
)

func TestHTTPMetricsUseRoutePatternAndStatusClass(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("paypal_orders", nil, registry)

	router := chi.NewRouter()
	router.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	router.Post("/api/webhooks/events/{id}/retry", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	for _, id := range []string{"1", "2", "WH-3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/webhooks/events/"+id+"/retry", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, float64(3), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodPost, "/api/webhooks/events/{id}/retry", "4xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "unmatched", "4xx")))
	require.Equal(t, 2, testutil.CollectAndCount(metrics.Duration))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("paypal_orders", nil, registry)
	second := obs.NewHTTPMetrics("paypal_orders", nil, registry)
	require.Same(t, first.Requests, second.Requests)
}

func TestParseBucketsCSVConvertsMilliseconds(t *testing.T) {
	require.Equal(t, []float64{0.005, 0.25, 1}, obs.ParseBucketsCSV("5, 250,x,-1,1000"))
	require.Nil(t, obs.ParseBucketsCSV(""))
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "2xx", obs.StatusClass(http.StatusNoContent))
	require.Equal(t, "5xx", obs.StatusClass(http.StatusBadGateway))
	require.Equal(t, "unknown", obs.StatusClass(0))
}

func TestRoutePatternPinnedOnContextWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	require.Empty(t, obs.RoutePatternFromContext(req.Context()))
	ctx := obs.WithRoutePattern(req.Context(), "/readyz")
	require.Equal(t, "/readyz", obs.RoutePatternFromContext(ctx))
}
