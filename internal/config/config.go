package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Webhook verification modes.
const (
	VerificationCertificate = "certificate"
	VerificationInsecure    = "insecure"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	SessionSecret     string
	SessionTTL        time.Duration
	SessionCookieName string
	AdminUsername     string
	AdminPasswordHash string

	CORSAllowedOrigins []string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite

	PayPal   PayPalConfig
	Webhooks WebhookConfig

	IdempotencyTTL time.Duration
	LoginRateLimit string
	AuditEnabled   bool
	MigrateOnStart bool

	Obs   ObsConfig
	Pprof PprofConfig
}

// PayPalConfig controls how inbound PayPal notifications are authenticated.
type PayPalConfig struct {
	WebhookID          string
	Verification       string
	CertAllowedHosts   []string
	CertCacheTTL       time.Duration
	SignatureSeparator string
	CertFetchTimeout   time.Duration
}

// WebhookConfig tunes the webhook endpoint and its admin surface.
type WebhookConfig struct {
	MaxBodyBytes int64
	RateLimit    string
	RetryLockTTL time.Duration
	StatsWindow  time.Duration
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	OTLPEndpoint     string
	ServiceName      string
	SamplerRatio     float64
}

// PprofConfig guards the profiling endpoints.
type PprofConfig struct {
	Enabled bool
	User    string
	Pass    string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:      strings.ToLower(valueOrDefault(k.String("APP_ENV"), "development")),
		Port:        valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL: k.String("DATABASE_URL"),
		RedisURL:    k.String("REDIS_URL"),

		SessionSecret:     k.String("SESSION_SECRET"),
		SessionTTL:        parseDuration(k.String("SESSION_TTL"), "12h"),
		SessionCookieName: valueOrDefault(k.String("SESSION_COOKIE_NAME"), "admin_session"),
		AdminUsername:     valueOrDefault(k.String("ADMIN_USERNAME"), "admin"),
		AdminPasswordHash: strings.TrimSpace(k.String("ADMIN_PASSWORD_HASH")),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CookieDomain:       strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:     parseSameSite(k.String("COOKIE_SAMESITE")),

		PayPal: PayPalConfig{
			WebhookID:          strings.TrimSpace(k.String("PAYPAL_WEBHOOK_ID")),
			Verification:       strings.ToLower(valueOrDefault(k.String("PAYPAL_WEBHOOK_VERIFICATION"), VerificationCertificate)),
			CertAllowedHosts:   splitAndTrim(valueOrDefault(k.String("PAYPAL_CERT_ALLOWED_HOSTS"), "api.paypal.com,api.sandbox.paypal.com")),
			CertCacheTTL:       parseDuration(k.String("PAYPAL_CERT_CACHE_TTL"), "1h"),
			SignatureSeparator: valueOrDefault(k.String("PAYPAL_SIGNATURE_SEPARATOR"), "|"),
			CertFetchTimeout:   parseDuration(k.String("PAYPAL_CERT_FETCH_TIMEOUT"), "5s"),
		},
		Webhooks: WebhookConfig{
			MaxBodyBytes: parseInt64(k.String("WEBHOOK_MAX_BODY_BYTES"), 1<<20),
			RateLimit:    valueOrDefault(k.String("WEBHOOK_RATE_LIMIT"), "600-M"),
			RetryLockTTL: parseDuration(k.String("RETRY_LOCK_TTL"), "30s"),
			StatsWindow:  parseDuration(k.String("WEBHOOK_STATS_RECENT_WINDOW"), "24h"),
		},

		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LoginRateLimit: valueOrDefault(k.String("LOGIN_RATE_LIMIT"), "10-M"),
		AuditEnabled:   parseBoolDefault(k.String("AUDIT_ENABLED"), true),
		MigrateOnStart: parseBool(k.String("MIGRATE_ON_START")),

		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBoolDefault(k.String("OBS_METRICS_ENABLED"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "paypal_orders"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS"),
			TracingEnabled:   parseBool(k.String("OBS_TRACING_ENABLED")),
			OTLPEndpoint:     strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
			ServiceName:      valueOrDefault(k.String("OTEL_SERVICE_NAME"), "paypal-orders"),
			SamplerRatio:     parseFloat(k.String("OTEL_TRACES_SAMPLER_RATIO"), 1),
		},
		Pprof: PprofConfig{
			Enabled: parseBool(k.String("PPROF_ENABLED")),
			User:    k.String("PPROF_USER"),
			Pass:    k.String("PPROF_PASS"),
		},
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes in production")
	}
	if c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH is required")
	}
	switch c.PayPal.Verification {
	case VerificationCertificate:
		if c.PayPal.WebhookID == "" {
			return errors.New("PAYPAL_WEBHOOK_ID is required for certificate verification")
		}
		if len(c.PayPal.CertAllowedHosts) == 0 {
			return errors.New("PAYPAL_CERT_ALLOWED_HOSTS must not be empty")
		}
	case VerificationInsecure:
		if c.IsProduction() {
			return errors.New("PAYPAL_WEBHOOK_VERIFICATION=insecure is not allowed in production")
		}
	default:
		return fmt.Errorf("PAYPAL_WEBHOOK_VERIFICATION must be %q or %q", VerificationCertificate, VerificationInsecure)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
