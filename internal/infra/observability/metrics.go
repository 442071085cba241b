package observability

import (
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	payments        *prometheus.CounterVec
	records         *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "colespa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colespa_external_errors_total",
				Help: "Total errors from vendor services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colespa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colespa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		payments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colespa_payments_total",
				Help: "Payment pipeline events by stage/outcome.",
			},
			[]string{"event"}, // intent_created | succeeded | failed | requires_action
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colespa_client_records_total",
				Help: "Client record persistence outcomes.",
			},
			[]string{"outcome"}, // persisted | persist_failed
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "colespa_llm_tokens_total",
				Help: "Total LLM tokens consumed by content generation.",
			},
			[]string{"type"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrPaymentEvent increments a payment pipeline counter.
func (m *Metrics) IncrPaymentEvent(event string) {
	m.payments.WithLabelValues(event).Inc()
}

// IncrRecordOutcome increments a record persistence counter.
func (m *Metrics) IncrRecordOutcome(outcome string) {
	m.records.WithLabelValues(outcome).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// GetPaymentSnapshot returns a snapshot of payment-pipeline metrics suitable
// for the GET /v1/metrics/payments endpoint.
func (m *Metrics) GetPaymentSnapshot() *domain.PaymentMetrics {
	return &domain.PaymentMetrics{
		IntentsCreated:    getCounterValue(m.payments, "intent_created"),
		PaymentsSucceeded: getCounterValue(m.payments, "succeeded"),
		PaymentsFailed:    getCounterValue(m.payments, "failed"),
		RecordsPersisted:  getCounterValue(m.records, "persisted"),
		PersistFailures:   getCounterValue(m.records, "persist_failed"),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
