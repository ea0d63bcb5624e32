package resilience_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paypal-orders/internal/resilience"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	clock := newClock()
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Closed, breaker.State(), "below min requests")
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))

	clock.Advance(time.Minute)
	require.True(t, breaker.Allow(ctx), "cool-off elapsed, probe allowed")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	require.False(t, breaker.Allow(ctx), "only one probe in flight")

	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clock := newClock()
	breaker := resilience.NewBreaker(1, 0.5, time.Second).WithClock(clock.Now)
	ctx := context.Background()

	require.EqualError(t, breaker.Do(ctx, func(context.Context) error { return errors.New("boom") }), "boom")
	require.Equal(t, resilience.Open, breaker.State())

	clock.Advance(time.Second)
	err := breaker.Do(ctx, func(context.Context) error { return errors.New("still down") })
	require.EqualError(t, err, "still down")
	require.Equal(t, resilience.Open, breaker.State())
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return nil }), resilience.ErrOpenCircuit)
}

func TestBreakerToleratesMinorityFailures(t *testing.T) {
	breaker := resilience.NewBreaker(4, 0.5, time.Second)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.True(t, breaker.Allow(ctx))
		breaker.Report(ctx, i%4 != 0)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerMetricsTransitions(t *testing.T) {
	resilience.BreakerState.Reset()
	resilience.BreakerTransitions.Reset()
	resilience.BreakerOpenedTotal.Reset()

	clock := newClock()
	breaker := resilience.NewBreaker(1, 0.5, time.Second).WithClock(clock.Now).WithTarget("paypal_cert")
	ctx := context.Background()

	require.Equal(t, 0.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("paypal_cert")))

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("paypal_cert")))

	clock.Advance(time.Second)
	require.True(t, breaker.Allow(ctx))
	require.Equal(t, 2.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("paypal_cert")))

	breaker.Report(ctx, true)
	require.Equal(t, 0.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("paypal_cert")))

	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerOpenedTotal.WithLabelValues("paypal_cert")))
	for _, edge := range [][2]string{{"closed", "open"}, {"open", "half_open"}, {"half_open", "closed"}} {
		require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("paypal_cert", edge[0], edge[1])), edge)
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 0, 0))
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, 4*base, resilience.Backoff(base, 3, 0))

	for i := 0; i < 50; i++ {
		d := resilience.Backoff(base, 2, 0.2)
		require.GreaterOrEqual(t, d, 160*time.Millisecond)
		require.LessOrEqual(t, d, 240*time.Millisecond)
	}
}
