package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/paypal-orders/internal/audit"
	"github.com/noah-isme/paypal-orders/internal/config"
	"github.com/noah-isme/paypal-orders/internal/obs"
	"github.com/noah-isme/paypal-orders/internal/security"
)

func newRouter(cfg *config.Config, a *app, tracingEnabled bool) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Obs.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets)
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, nil)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: a.logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))

	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Pprof.Enabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Pprof.User, cfg.Pprof.Pass))
	}

	r.Get("/health", a.health.Health)
	r.Get("/livez", a.health.Live)
	r.Get("/readyz", a.health.Ready)

	csrf := security.CSRF{}
	requireSession := func(g chi.Router) {
		g.Use(a.session.RequireSession)
		g.Use(csrf.Middleware)
	}

	r.Route("/api", func(api chi.Router) {
		api.With(a.idem.Middleware).Post("/orders", a.orders.Create)
		api.Get("/orders/paypal/{externalId}", a.orders.GetByExternalID)

		api.With(
			security.BodyLimit{Max: cfg.Webhooks.MaxBodyBytes}.Middleware,
			a.webhookRL.Middleware,
		).Post("/webhooks/paypal", a.webhook.Receive)
		api.Get("/webhooks/status", a.admin.Status)

		api.Route("/auth", func(ar chi.Router) {
			ar.With(a.loginRL.Middleware).Post("/login", a.authHandler.Login)
			ar.Group(func(g chi.Router) {
				requireSession(g)
				g.Post("/logout", a.authHandler.Logout)
				g.Get("/me", a.authHandler.Me)
			})
		})

		api.Group(func(g chi.Router) {
			requireSession(g)

			g.Get("/orders", a.orders.List)
			g.Get("/orders/{id}", a.orders.Get)
			g.Get("/orders/{id}/history", a.orders.History)
			g.With(a.auditRec.Middleware(audit.HTTPConfig{
				Action:          "order.status_update",
				ResourceType:    "order",
				ResourceIDParam: "id",
			})).Put("/orders/{id}/status", a.orders.UpdateStatus)
			g.Get("/stats", a.orders.Stats)

			g.Get("/webhooks/events", a.admin.ListEvents)
			g.Get("/webhooks/events/{id}", a.admin.GetEvent)
			g.With(a.auditRec.Middleware(audit.HTTPConfig{
				Action:          "webhook.retry",
				ResourceType:    "webhook_event",
				ResourceIDParam: "id",
			})).Post("/webhooks/events/{id}/retry", a.admin.Retry)
			g.Get("/webhooks/stats", a.admin.Stats)

			g.Get("/audit-logs", a.auditLogs.List)
		})
	})

	return r, nil
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

// protectPprof requires basic auth when user is set.
func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
