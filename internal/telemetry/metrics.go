package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	CarrierErrors     *prometheus.CounterVec
	RequestsCancelled *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them with reg. A nil reg uses
// the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transports_queries_total",
				Help: "Total number of transport queries by platform, protocol, and status",
			},
			[]string{"platform", "protocol", "status"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transports_query_duration_seconds",
				Help:    "Transport query duration in seconds by protocol",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"protocol"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transports_errors_total",
				Help: "Total transport errors by protocol and error type",
			},
			[]string{"protocol", "error_type"},
		),
		RequestsCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transports_requests_cancelled_total",
				Help: "Total cancelled transport requests by platform",
			},
			[]string{"platform"},
		),
	}
}

// RecordQuery records the outcome of one transport query.
func (m *Metrics) RecordQuery(platform, protocol, status string, duration float64) {
	if protocol == "" {
		protocol = "none"
	}
	m.QueriesTotal.WithLabelValues(platform, protocol, status).Inc()
	m.QueryDuration.WithLabelValues(protocol).Observe(duration)
}

// RecordError records a transport error metric.
func (m *Metrics) RecordError(protocol, errorType string) {
	if protocol == "" {
		protocol = "none"
	}
	m.CarrierErrors.WithLabelValues(protocol, errorType).Inc()
}

// RecordCancel records a cancelled request.
func (m *Metrics) RecordCancel(platform string) {
	m.RequestsCancelled.WithLabelValues(platform).Inc()
}
