package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the relay's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	connections    prometheus.Gauge
	rooms          prometheus.Gauge
	commands       *prometheus.CounterVec
	delivered      *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	assistCalls    *prometheus.CounterVec
	assistLatency  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coderelay_ws_connections",
			Help: "Current number of active websocket connections.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coderelay_ws_rooms",
			Help: "Current number of non-empty rooms.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderelay_commands_total",
			Help: "Commands processed by the hub.",
		}, []string{"kind"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderelay_events_delivered_total",
			Help: "Events queued for delivery to a connection.",
		}, []string{"event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderelay_events_dropped_total",
			Help: "Events discarded before reaching a connection.",
		}, []string{"event", "reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderelay_http_requests_total",
			Help: "Total count of HTTP requests received.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coderelay_http_request_duration_seconds",
			Help:    "Histogram of request durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		assistCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coderelay_assist_requests_total",
			Help: "Model proxy calls by outcome.",
		}, []string{"outcome"}),
		assistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coderelay_assist_duration_seconds",
			Help:    "Latency of model proxy calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}),
	}

	reg.MustRegister(
		m.connections,
		m.rooms,
		m.commands,
		m.delivered,
		m.dropped,
		m.requests,
		m.requestLatency,
		m.assistCalls,
		m.assistLatency,
	)
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(n))
}

func (m *Metrics) CommandHandled(kind string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind).Inc()
}

func (m *Metrics) EventDelivered(event string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(event).Inc()
}

// EventDropped counts an undeliverable event; reason is "unknown_conn" or "queue_full".
func (m *Metrics) EventDropped(event, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(event, reason).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AssistCall records one proxy call; outcome is "ok" or "error".
func (m *Metrics) AssistCall(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.assistCalls.WithLabelValues(outcome).Inc()
	m.assistLatency.Observe(elapsed.Seconds())
}
