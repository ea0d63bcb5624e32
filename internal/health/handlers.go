package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/paypal-orders/internal/common"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness. It is flipped to false when shutdown starts so
// load balancers drain traffic before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current readiness flag.
func IsReady() bool {
	return ready.Load()
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes Postgres and Redis in parallel. Any failing probe, or a
// shutdown in progress, answers 503.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "dependencies unavailable"})
		return
	}
	probes := map[string]func(context.Context, time.Duration) error{
		"db":    h.Checker.PingDB,
		"redis": h.Checker.PingRedis,
	}
	timeouts := map[string]time.Duration{"db": h.dbTimeout(), "redis": h.redisTimeout()}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(map[string]string, len(probes))
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := "ok"
			if err := probe(r.Context(), timeouts[name]); err != nil {
				status = err.Error()
			}
			mu.Lock()
			result[name] = status
			mu.Unlock()
		}()
	}
	wg.Wait()

	code := http.StatusOK
	for _, status := range result {
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
	}
	common.JSON(w, code, result)
}

// Health reports database connectivity in the shape used by the admin frontend.
func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "not configured"})
		return
	}
	if err := h.Checker.PingDB(r.Context(), h.dbTimeout()); err != nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
