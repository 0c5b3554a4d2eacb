package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	ChecksCreated      *prometheus.CounterVec
	Reviews            *prometheus.CounterVec
	Escalations        prometheus.Counter
	AuditEntries       prometheus.Counter
	AuditFailures      prometheus.Counter
	EvaluationDuration prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ChecksCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "adviserd_checks_created_total",
			Help: "Total compliance checks created, by rule type and severity",
		}, []string{"rule_type", "severity"}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "adviserd_check_reviews_total",
			Help: "Total check reviews, by outcome",
		}, []string{"outcome"}),
		Escalations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adviserd_check_escalations_total",
			Help: "Total check escalations",
		}),
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adviserd_audit_entries_total",
			Help: "Total audit entries recorded",
		}),
		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adviserd_audit_failures_total",
			Help: "Total failed audit writes",
		}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "adviserd_evaluation_duration_seconds",
			Help:    "Content evaluation duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
