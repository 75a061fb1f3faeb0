package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentals/internal/app/middleware"
	domainextension "rentals/internal/domain/extension"
)

const namespace = "rentals"

// Metrics owns a private registry so tests and multiple servers do not
// collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	messages    *prometheus.HistogramVec
	http        *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	outbox      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_message_duration_seconds",
			Help:      "Duration of commands and queries by key and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "key", "outcome"}),
		http: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_transitions_total",
			Help:      "Count of extension plan state transitions by target state.",
		}, []string{"state"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_records_total",
			Help:      "Count of outbox records handled by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages, m.http, m.transitions, m.outbox,
	)
	return m
}

func (m *Metrics) ObserveMessage(kind, key, outcome string, took time.Duration) {
	m.messages.WithLabelValues(kind, key, outcome).Observe(took.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route, status string, took time.Duration) {
	m.http.WithLabelValues(method, route, status).Observe(took.Seconds())
}

func (m *Metrics) ExtensionTransition(_ string, state domainextension.State) {
	m.transitions.WithLabelValues(string(state)).Inc()
}

// OutboxRecords counts records the outbox worker published or failed.
func (m *Metrics) OutboxRecords(result string, n int) {
	m.outbox.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ middleware.Observer = (*Metrics)(nil)
