// Package metrics exposes the pipeline's Prometheus collectors. Every method
// is nil-safe so components can be built without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siteforge"

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry       *prometheus.Registry
	llmCalls       *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	attempts       *prometheus.CounterVec
	qualityScore   prometheus.Histogram
	slotDecisions  *prometheus.CounterVec
	saves          *prometheus.CounterVec
	enhancements   *prometheus.CounterVec
	roomSockets    prometheus.Gauge
	activeRooms    prometheus.Gauge
	janitorDeletes prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Generative text calls by tier and outcome.",
		}, []string{"tier", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_seconds",
			Help:      "Latency of generative text calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		}, []string{"tier"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_attempts_total",
			Help:      "Synthesis attempts by result.",
		}, []string{"result"}),
		qualityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Quality gate scores per attempt.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		slotDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_decisions_total",
			Help:      "Per-slot reuse or generate decisions.",
		}, []string{"decision"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Page saves by outcome.",
		}, []string{"outcome"}),
		enhancements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enhancements_total",
			Help:      "Save-time enhancement runs by result.",
		}, []string{"enhanced"}),
		roomSockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_sockets",
			Help:      "Sockets attached to collaboration rooms.",
		}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Collaboration rooms with at least one socket.",
		}),
		janitorDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_deleted_total",
			Help:      "Transient artifacts removed by the janitor.",
		}),
	}

	m.registry.MustRegister(
		m.llmCalls, m.llmLatency, m.attempts, m.qualityScore, m.slotDecisions,
		m.saves, m.enhancements, m.roomSockets, m.activeRooms, m.janitorDeletes,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) LLMCall(tier, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(tier, outcome).Inc()
	m.llmLatency.WithLabelValues(tier).Observe(elapsed.Seconds())
}

func (m *Metrics) Attempt(result string, score int) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
	if score >= 0 {
		m.qualityScore.Observe(float64(score))
	}
}

func (m *Metrics) SlotDecision(decision string) {
	if m == nil {
		return
	}
	m.slotDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) Save(outcome string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Enhancement(enhanced bool) {
	if m == nil {
		return
	}
	label := "false"
	if enhanced {
		label = "true"
	}
	m.enhancements.WithLabelValues(label).Inc()
}

func (m *Metrics) SocketAttached() {
	if m == nil {
		return
	}
	m.roomSockets.Inc()
}

func (m *Metrics) SocketDetached() {
	if m == nil {
		return
	}
	m.roomSockets.Dec()
}

func (m *Metrics) RoomOpened() {
	if m == nil {
		return
	}
	m.activeRooms.Inc()
}

func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.activeRooms.Dec()
}

func (m *Metrics) JanitorDeleted(n int) {
	if m == nil {
		return
	}
	m.janitorDeletes.Add(float64(n))
}
