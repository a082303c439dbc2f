// Package metrics exposes lot and gateway state in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parking"

type Metrics struct {
	registry *prometheus.Registry

	events       *prometheus.CounterVec
	warnings     prometheus.Counter
	available    prometheus.Gauge
	occupied     prometheus.Gauge
	parked       prometheus.Gauge
	revenue      prometheus.Gauge
	transactions prometheus.Gauge
	ingested     *prometheus.CounterVec
}

// New builds a registry holding the lot metrics plus the standard Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Rig events applied, by kind and whether they changed state.",
		}, []string{"kind", "outcome"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_warnings_total",
			Help:      "Events that were accepted but reported a warning.",
		}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slots_available",
			Help:      "Available slots in the current snapshot.",
		}),
		occupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slots_occupied",
			Help:      "Slots reported occupied by the sensors.",
		}),
		parked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicles_parked",
			Help:      "Vehicle sessions currently parked.",
		}),
		revenue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revenue",
			Help:      "Revenue collected since the last reset.",
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "Completed payments since the last reset.",
		}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Queue messages handled by the ingest consumer.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.events, m.warnings,
		m.available, m.occupied, m.parked, m.revenue, m.transactions,
		m.ingested,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one applied event. It satisfies lot.Observer.
func (m *Metrics) Observe(ev lot.Event, out lot.Outcome, snap lot.Snapshot) {
	kind := string(ev.Kind)
	if !ev.Kind.Known() {
		kind = "unknown"
	}
	outcome := "noop"
	if out.Changed {
		outcome = "changed"
	}
	m.events.WithLabelValues(kind, outcome).Inc()
	if out.Warning != "" {
		m.warnings.Inc()
	}
	m.Publish(snap)
}

// Publish updates the lot gauges. It satisfies lot.Publisher so resets
// are reflected too.
func (m *Metrics) Publish(snap lot.Snapshot) {
	m.available.Set(float64(snap.AvailableSlots))
	m.occupied.Set(float64(snap.Occupied()))
	m.parked.Set(float64(snap.ParkedCount()))
	m.revenue.Set(float64(snap.Revenue))
	m.transactions.Set(float64(snap.Transactions))
}

// IngestResult counts a queue message with status "applied", "rejected"
// or "failed".
func (m *Metrics) IngestResult(status string) {
	m.ingested.WithLabelValues(status).Inc()
}

// RegisterGateway exposes websocket subscriber counts read from the
// gateway on every scrape.
func (m *Metrics) RegisterGateway(subscribers func() int, dropped func() uint64) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_subscribers",
			Help:      "Connected websocket subscribers.",
		}, func() float64 { return float64(subscribers()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_total",
			Help:      "Subscribers dropped because they could not keep up.",
		}, func() float64 { return float64(dropped()) }),
	)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
