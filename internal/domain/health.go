package domain

// ServiceHealth describes one dependency in the health report.
type ServiceHealth struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"` // healthy | degraded | unhealthy
	LatencyMs     int64   `json:"latency_ms"`
	UptimePercent float64 `json:"uptime_percent"`
	LastChecked   string  `json:"last_checked"`
}

// HealthStatus is the aggregate /healthz response.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// PaymentMetrics is the snapshot served by GET /v1/metrics/payments.
type PaymentMetrics struct {
	IntentsCreated   float64 `json:"intents_created"`
	PaymentsSucceeded float64 `json:"payments_succeeded"`
	PaymentsFailed   float64 `json:"payments_failed"`
	RecordsPersisted float64 `json:"records_persisted"`
	PersistFailures  float64 `json:"persist_failures"`
	AvgLatencyMs     float64 `json:"avg_latency_ms"`
}
