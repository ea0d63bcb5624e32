package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paypal-orders/internal/auth"
	"github.com/noah-isme/paypal-orders/internal/config"
	"github.com/noah-isme/paypal-orders/internal/health"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	svc, err := auth.NewService(auth.Config{
		Username:     "admin",
		PasswordHash: hash,
		Secret:       "0123456789abcdef0123456789abcdef",
		SessionTTL:   time.Hour,
		Sessions:     auth.RedisSessions{Client: client},
		Issuer:       serviceName,
		Audience:     serviceName + "-admin",
	})
	require.NoError(t, err)

	return &app{
		logger:  zerolog.Nop(),
		health:  health.Handler{},
		session: auth.Middleware{Service: svc, CookieName: "admin_session"},
	}
}

func TestRouterProtectsAdminRoutes(t *testing.T) {
	cfg := &config.Config{AppEnv: "test"}
	router, err := newRouter(cfg, newTestApp(t), false)
	require.NoError(t, err)

	for _, path := range []string{"/api/orders", "/api/stats", "/api/webhooks/events", "/api/webhooks/stats", "/api/audit-logs", "/api/auth/me"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/webhooks/events/1/retry", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterServesLivenessAndHidesPprof(t *testing.T) {
	cfg := &config.Config{AppEnv: "test"}
	router, err := newRouter(cfg, newTestApp(t), false)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProtectPprofRequiresBasicAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := protectPprof(inner, "ops", "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("ops", "secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	rr = httptest.NewRecorder()
	protectPprof(inner, "", "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
}
