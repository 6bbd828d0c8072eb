package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "portgraph"

// Direction labels for port deliveries.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
	DirectionOwner    = "owner"
)

// Metrics groups the collectors for one graph runtime.
type Metrics struct {
	PortDeliveries    *prometheus.CounterVec
	HandlerErrors     prometheus.Counter
	FilterSuppressed  *prometheus.CounterVec
	Nodes             prometheus.Gauge
	Bindings          prometheus.Gauge
	BindingRejections *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Collectors already
// registered by an earlier runtime on the same registerer are reused.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PortDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "port",
				Name:      "deliveries_total",
				Help:      "Envelopes accepted by ports, by propagation direction",
			},
			[]string{"direction"},
		),
		HandlerErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "port",
				Name:      "handler_errors_total",
				Help:      "Data handler failures caught and suppressed by ports",
			},
		),
		FilterSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "filter",
				Name:      "suppressed_total",
				Help:      "Values dropped by filters instead of being forwarded",
			},
			[]string{"kind"},
		),
		Nodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "nodes",
				Help:      "Nodes currently registered in the graph",
			},
		),
		Bindings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "bindings",
				Help:      "Bindings currently loaded in the graph",
			},
		),
		BindingRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "binding_rejections_total",
				Help:      "Binding requests rejected with a structural error, by reason",
			},
			[]string{"reason"},
		),
	}

	if reg == nil {
		return m
	}

	m.PortDeliveries = register(reg, m.PortDeliveries)
	m.HandlerErrors = register(reg, m.HandlerErrors)
	m.FilterSuppressed = register(reg, m.FilterSuppressed)
	m.Nodes = register(reg, m.Nodes)
	m.Bindings = register(reg, m.Bindings)
	m.BindingRejections = register(reg, m.BindingRejections)
	return m
}

// register returns the collector that ends up registered: c itself, or the
// equivalent one registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// Delivery records one envelope accepted by a port.
func (m *Metrics) Delivery(direction string) {
	if m == nil {
		return
	}
	m.PortDeliveries.WithLabelValues(direction).Inc()
}

// HandlerError records one suppressed handler failure.
func (m *Metrics) HandlerError() {
	if m == nil {
		return
	}
	m.HandlerErrors.Inc()
}

// Suppressed records a value a filter chose not to forward.
func (m *Metrics) Suppressed(kind string) {
	if m == nil {
		return
	}
	m.FilterSuppressed.WithLabelValues(kind).Inc()
}

// SetNodes publishes the current node count.
func (m *Metrics) SetNodes(n int) {
	if m == nil {
		return
	}
	m.Nodes.Set(float64(n))
}

// SetBindings publishes the current binding count.
func (m *Metrics) SetBindings(n int) {
	if m == nil {
		return
	}
	m.Bindings.Set(float64(n))
}

// Rejected records a structural rejection of a binding request.
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.BindingRejections.WithLabelValues(reason).Inc()
}
