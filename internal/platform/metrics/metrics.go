package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProfileUpdates       prometheus.Counter
	ProfileDeletes       prometheus.Counter
	RateLimitRejections  prometheus.Counter
	AuditEntriesRecorded prometheus.Counter
	AuditStreamDropped   prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProfileUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "profiled_profile_updates_total",
			Help: "Total number of successful profile updates",
		}),
		ProfileDeletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "profiled_profile_deletes_total",
			Help: "Total number of successful profile soft-deletes",
		}),
		RateLimitRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "profiled_rate_limit_rejections_total",
			Help: "Total number of profile updates rejected by the cooldown",
		}),
		AuditEntriesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "profiled_audit_entries_recorded_total",
			Help: "Total number of audit log entries committed",
		}),
		AuditStreamDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "profiled_audit_stream_dropped_total",
			Help: "Audit entries dropped by the best-effort stream fan-out",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profiled_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
