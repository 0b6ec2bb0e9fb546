package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	SessionsStarted   prometheus.Counter
	ExpansionsTotal   *prometheus.CounterVec
	ExpansionDuration prometheus.Histogram
	OracleRequests    *prometheus.CounterVec
	DroppedEdges      prometheus.Counter
	WSConnections     prometheus.Gauge
}

// NewMetrics creates and registers the engine metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "conceptgraph",
			Name:      "active_sessions",
			Help:      "Number of live exploration sessions",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conceptgraph",
			Name:      "sessions_started_total",
			Help:      "Total exploration sessions bootstrapped",
		}),
		ExpansionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conceptgraph",
			Name:      "expansions_total",
			Help:      "Concept expansions by result",
		}, []string{"result"}),
		ExpansionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "conceptgraph",
			Name:      "expansion_duration_seconds",
			Help:      "End-to-end duration of concept expansions",
			Buckets:   prometheus.DefBuckets,
		}),
		OracleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conceptgraph",
			Name:      "oracle_requests_total",
			Help:      "Requests to the concept expansion service by outcome",
		}, []string{"outcome"}),
		DroppedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conceptgraph",
			Name:      "dropped_edges_total",
			Help:      "Edges dropped at merge time because an endpoint was missing",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "conceptgraph",
			Name:      "websocket_connections",
			Help:      "Open projection-push WebSocket connections",
		}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.SessionsStarted,
		m.ExpansionsTotal,
		m.ExpansionDuration,
		m.OracleRequests,
		m.DroppedEdges,
		m.WSConnections,
	)

	return m
}

// ObserveExpansion records one finished expansion attempt
func (m *Metrics) ObserveExpansion(result string, start time.Time) {
	m.ExpansionsTotal.WithLabelValues(result).Inc()
	m.ExpansionDuration.Observe(time.Since(start).Seconds())
}
