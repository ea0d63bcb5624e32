package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paypal-orders/internal/audit"
	"github.com/noah-isme/paypal-orders/internal/auth"
	"github.com/noah-isme/paypal-orders/internal/common"
	"github.com/noah-isme/paypal-orders/internal/config"
	"github.com/noah-isme/paypal-orders/internal/db"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/events"
	"github.com/noah-isme/paypal-orders/internal/health"
	"github.com/noah-isme/paypal-orders/internal/lock"
	"github.com/noah-isme/paypal-orders/internal/obs"
	"github.com/noah-isme/paypal-orders/internal/order"
	"github.com/noah-isme/paypal-orders/internal/payment"
	"github.com/noah-isme/paypal-orders/internal/ratelimit"
	"github.com/noah-isme/paypal-orders/internal/resilience"
)

const serviceName = "paypal-orders"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().
		Str("service", cfg.Obs.ServiceName).
		Str("env", cfg.AppEnv).
		Logger()

	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
		resilience.RegisterMetrics(nil)
	}

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   cfg.Obs.ServiceName,
			Endpoint:      cfg.Obs.OTLPEndpoint,
			SamplingRatio: cfg.Obs.SamplerRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := newRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	app, err := buildApp(cfg, pool, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire application")
	}

	router, err := newRouter(cfg, app, tracingEnabled)
	if err != nil {
		logger.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("verification_mode", cfg.PayPal.Verification).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-runCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server exited unexpectedly")
		}
	}

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func newPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = serviceName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func newRedis(ctx context.Context, redisURL string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// app groups the wired handlers and middleware the router mounts.
type app struct {
	logger      zerolog.Logger
	health      health.Handler
	orders      *order.Handler
	webhook     *payment.WebhookHandler
	admin       *payment.AdminHandler
	authHandler *auth.Handler
	session     auth.Middleware
	auditRec    audit.HTTPRecorder
	auditLogs   audit.Handler
	idem        common.Idem
	webhookRL   ratelimit.Handler
	loginRL     ratelimit.Handler
}

func buildApp(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger zerolog.Logger) (*app, error) {
	queries := dbgen.New(pool)
	validate := common.NewValidator()

	bus := &events.Bus{
		Store: queries,
		Notifiers: []events.Notifier{
			events.MetricsNotifier{},
			events.LogNotifier{Logger: logger},
		},
	}
	orderRepo, err := order.NewPGRepository(pool, bus)
	if err != nil {
		return nil, err
	}
	orderService := order.NewService(orderRepo, bus, validate, logger)

	verifier, err := newVerifier(cfg, redisClient, logger)
	if err != nil {
		return nil, err
	}
	store := payment.NewPGStore(queries)
	dispatcher := payment.NewDispatcher(&payment.Reconciler{Orders: orderService, Logger: logger})
	processor := payment.NewProcessor(verifier, cfg.PayPal.Verification, store, dispatcher, logger)
	retrier := &payment.Retrier{
		Processor: processor,
		Locker:    lock.Locker{R: redisClient},
		LockTTL:   cfg.Webhooks.RetryLockTTL,
	}

	authService, err := auth.NewService(auth.Config{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.SessionSecret,
		SessionTTL:   cfg.SessionTTL,
		Sessions:     auth.RedisSessions{Client: redisClient},
		Issuer:       serviceName,
		Audience:     serviceName + "-admin",
	})
	if err != nil {
		return nil, err
	}

	auditService := &audit.Service{Store: queries, Enabled: cfg.AuditEnabled, SamplingRate: 1}
	onError := func(err error) { logger.Warn().Err(err).Msg("audit record failed") }

	window, max, err := ratelimit.ParseRate(cfg.Webhooks.RateLimit)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := ratelimit.NewFixedWindow(redisClient, "rl:login", cfg.LoginRateLimit)
	if err != nil {
		return nil, err
	}
	onLimitError := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }

	return &app{
		logger: logger,
		health: health.Handler{
			Checker:      readinessChecker{db: pool, redis: redisClient},
			DBTimeout:    500 * time.Millisecond,
			RedisTimeout: 300 * time.Millisecond,
		},
		orders:  &order.Handler{Service: orderService, Logger: logger},
		webhook: &payment.WebhookHandler{Processor: processor},
		admin: &payment.AdminHandler{
			Store:       store,
			Retrier:     retrier,
			Mode:        cfg.PayPal.Verification,
			StatsWindow: cfg.Webhooks.StatsWindow,
			Logger:      logger,
		},
		authHandler: &auth.Handler{
			Service:        authService,
			Validate:       validate,
			Audit:          auditService,
			Logger:         logger,
			CookieName:     cfg.SessionCookieName,
			CookieDomain:   cfg.CookieDomain,
			CookieSecure:   cfg.CookieSecure,
			CookieSameSite: cfg.CookieSameSite,
		},
		session:   auth.Middleware{Service: authService, CookieName: cfg.SessionCookieName},
		auditRec:  audit.HTTPRecorder{Service: auditService, OnError: onError},
		auditLogs: audit.Handler{Store: queries},
		idem:      common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL},
		webhookRL: ratelimit.Handler{
			Limiter: ratelimit.SlidingWindow{Client: redisClient, Prefix: "rl:webhook:", Window: window, Max: max},
			Key:     ratelimit.ByClientIP("webhook"),
			OnError: onLimitError,
		},
		loginRL: ratelimit.Handler{
			Limiter: loginLimiter,
			Key:     ratelimit.ByClientIP("login"),
			OnError: onLimitError,
		},
	}, nil
}

func newVerifier(cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) (payment.Verifier, error) {
	if cfg.PayPal.Verification == config.VerificationInsecure {
		v, err := payment.NewInsecureVerifier(!cfg.IsProduction())
		if err != nil {
			return nil, err
		}
		logger.Warn().Msg("webhook signature verification is disabled")
		return v, nil
	}
	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("paypal_cert").
		WithLogger(logger)
	return payment.CertificateVerifier{
		WebhookID:    cfg.PayPal.WebhookID,
		Separator:    cfg.PayPal.SignatureSeparator,
		AllowedHosts: cfg.PayPal.CertAllowedHosts,
		Certs:        payment.NewCertCache(redisClient, cfg.PayPal.CertCacheTTL, cfg.PayPal.CertFetchTimeout, breaker),
	}, nil
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}
