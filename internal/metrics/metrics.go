package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	replies        *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	notices        *prometheus.CounterVec
	feedback       prometheus.Counter
	activeSessions prometheus.Gauge
	replyLatency   prometheus.Histogram
}

// New registers the tutor collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		replies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edubridge_replies_total",
				Help: "Replies produced, by language and source",
			},
			[]string{"language", "source"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edubridge_reply_fallbacks_total",
				Help: "Replies served by the static selector after the primary collaborator failed",
			},
			[]string{"reason"},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edubridge_submits_rejected_total",
				Help: "Submissions refused by the session state machine",
			},
			[]string{"reason"},
		),
		notices: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edubridge_notices_total",
				Help: "Transient notices surfaced to users, by kind",
			},
			[]string{"kind"},
		),
		feedback: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "edubridge_feedback_tokens_total",
				Help: "Celebration tokens emitted",
			},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "edubridge_active_sessions",
				Help: "Number of live tutoring sessions",
			},
		),
		replyLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edubridge_reply_latency_seconds",
				Help:    "Time spent producing a reply",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
			},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveReply(language, source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(language, source).Inc()
	m.replyLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) SubmitRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Notice(kind string) {
	if m == nil {
		return
	}
	m.notices.WithLabelValues(kind).Inc()
}

func (m *Metrics) FeedbackEmitted() {
	if m == nil {
		return
	}
	m.feedback.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
