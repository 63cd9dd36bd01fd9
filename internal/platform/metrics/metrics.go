package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	Mutations          *prometheus.CounterVec
	MutationDuration   *prometheus.HistogramVec
	TokensIssued       *prometheus.CounterVec
	AuthFailures       *prometheus.CounterVec
	RevocationLatency  prometheus.Histogram
	Subscribers        prometheus.Gauge
	EventsDelivered    prometheus.Counter
	SubscribersDropped prometheus.Counter
	MirrorFailures     prometheus.Counter
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterhub_mutations_total",
			Help: "Committed shelter mutations by action",
		}, []string{"action"}),
		MutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shelterhub_mutation_duration_ms",
			Help:    "Latency of registry mutations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"action", "outcome"}),
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterhub_tokens_issued_total",
			Help: "Access tokens issued by role",
		}, []string{"role"}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterhub_auth_failures_total",
			Help: "Rejected credentials by error code",
		}, []string{"code"}),
		RevocationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "shelterhub_revocation_check_duration_ms",
			Help:    "Latency of token revocation lookups in milliseconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),
		Subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "shelterhub_broadcast_subscribers",
			Help: "Currently registered live subscribers",
		}),
		EventsDelivered: f.NewCounter(prometheus.CounterOpts{
			Name: "shelterhub_broadcast_events_delivered_total",
			Help: "Events queued to subscribers",
		}),
		SubscribersDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "shelterhub_broadcast_subscribers_dropped_total",
			Help: "Subscribers pruned after a failed or blocked delivery",
		}),
		MirrorFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "shelterhub_event_mirror_failures_total",
			Help: "Change events that could not be mirrored to Kafka",
		}),
	}
}

// ObserveMutation records one mutation attempt.
func (m *Metrics) ObserveMutation(action string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		m.Mutations.WithLabelValues(action).Inc()
	}
	m.MutationDuration.WithLabelValues(action, outcome).Observe(float64(time.Since(start).Milliseconds()))
}
