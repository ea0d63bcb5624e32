package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// WebhookEventsTotal counts webhook deliveries by event type and outcome.
	WebhookEventsTotal *prometheus.CounterVec
	// WebhookProcessingSeconds observes handler dispatch time per event type.
	WebhookProcessingSeconds *prometheus.HistogramVec
	// WebhookVerificationTotal counts signature checks by verifier mode and result.
	WebhookVerificationTotal *prometheus.CounterVec
	// WebhookRetryTotal counts operator-triggered retries by result.
	WebhookRetryTotal *prometheus.CounterVec
	// OrderStatusTransitionsTotal counts order status writes by source and new status.
	OrderStatusTransitionsTotal *prometheus.CounterVec
	// CertFetchTotal counts signing certificate lookups by source (cache, remote) and result.
	CertFetchTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		WebhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Count of inbound webhook events by type and outcome.",
		}, []string{"event_type", "outcome"})
		WebhookProcessingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_processing_seconds",
			Help:      "Time spent dispatching webhook events to reconciliation handlers.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"event_type"})
		WebhookVerificationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_verification_total",
			Help:      "Count of webhook signature verification results.",
		}, []string{"mode", "result"})
		WebhookRetryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_retry_total",
			Help:      "Count of manual webhook event retries by result.",
		}, []string{"result"})
		OrderStatusTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Count of order status updates by source and resulting status.",
		}, []string{"source", "status"})
		CertFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paypal_cert_fetch_total",
			Help:      "Count of PayPal signing certificate lookups.",
		}, []string{"source", "result"})

		WebhookEventsTotal = registerOrReuse(reg, WebhookEventsTotal)
		WebhookProcessingSeconds = registerOrReuse(reg, WebhookProcessingSeconds)
		WebhookVerificationTotal = registerOrReuse(reg, WebhookVerificationTotal)
		WebhookRetryTotal = registerOrReuse(reg, WebhookRetryTotal)
		OrderStatusTransitionsTotal = registerOrReuse(reg, OrderStatusTransitionsTotal)
		CertFetchTotal = registerOrReuse(reg, CertFetchTotal)
	})
}

// IncWebhookEvent records a webhook outcome when domain metrics are registered.
func IncWebhookEvent(eventType, outcome string) {
	if WebhookEventsTotal == nil {
		return
	}
	WebhookEventsTotal.WithLabelValues(LabelOrUnknown(eventType), outcome).Inc()
}

// ObserveWebhookProcessing records dispatch duration in seconds.
func ObserveWebhookProcessing(eventType string, seconds float64) {
	if WebhookProcessingSeconds == nil {
		return
	}
	WebhookProcessingSeconds.WithLabelValues(LabelOrUnknown(eventType)).Observe(seconds)
}

// IncWebhookVerification records a verifier decision.
func IncWebhookVerification(mode, result string) {
	if WebhookVerificationTotal == nil {
		return
	}
	WebhookVerificationTotal.WithLabelValues(mode, result).Inc()
}

// IncWebhookRetry records a retry result.
func IncWebhookRetry(result string) {
	if WebhookRetryTotal == nil {
		return
	}
	WebhookRetryTotal.WithLabelValues(result).Inc()
}

// IncOrderStatusTransition records an applied order status write.
func IncOrderStatusTransition(source, status string) {
	if OrderStatusTransitionsTotal == nil {
		return
	}
	OrderStatusTransitionsTotal.WithLabelValues(source, LabelOrUnknown(status)).Inc()
}

// IncCertFetch records a certificate cache or remote lookup.
func IncCertFetch(source, result string) {
	if CertFetchTotal == nil {
		return
	}
	CertFetchTotal.WithLabelValues(source, result).Inc()
}

// LabelOrUnknown keeps empty values out of label sets.
func LabelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

