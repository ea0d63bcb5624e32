package resilience_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paypal-orders/internal/resilience"
)

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "cert")
	}))
	t.Cleanup(srv.Close)

	client := resilience.NewHTTPClient(time.Second, resilience.NewBreaker(10, 1, time.Second))
	client.BaseBackoff = time.Millisecond
	client.Jitter = 0

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "cert", string(body))
	require.Equal(t, int32(3), calls.Load())
}

func TestHTTPClientReturnsClientErrorsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := resilience.NewHTTPClient(time.Second, nil)
	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestHTTPClientStopsWhenBreakerOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	client := resilience.NewHTTPClient(time.Second, breaker)
	client.BaseBackoff = time.Millisecond
	client.MaxAttempts = 3

	_, err := client.Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, resilience.Open, breaker.State())
}
