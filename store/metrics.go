package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts what the store does with incoming triples.
type Metrics struct {
	Triples        *prometheus.CounterVec
	Deferred       prometheus.Counter
	Replayed       prometheus.Counter
	ListsCollected prometheus.Counter
	Unsupported    *prometheus.CounterVec
}

// NewMetrics creates the store metrics and registers them with reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Triples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "owlstore",
				Subsystem: "store",
				Name:      "triples_total",
				Help:      "Triples dispatched, by the kind of key that selected the handler",
			},
			[]string{"handler"},
		),

		Deferred: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "owlstore",
				Subsystem: "store",
				Name:      "deferred_total",
				Help:      "Property axioms buffered until the property kind is known",
			},
		),

		Replayed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "owlstore",
				Subsystem: "store",
				Name:      "replayed_total",
				Help:      "Buffered property axioms replayed after kind resolution",
			},
		),

		ListsCollected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "owlstore",
				Subsystem: "store",
				Name:      "lists_collected_total",
				Help:      "RDF lists reconstructed and consumed",
			},
		),

		Unsupported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "owlstore",
				Subsystem: "store",
				Name:      "unsupported_total",
				Help:      "Triples or operations ignored as unsupported",
			},
			[]string{"reason"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Triples, m.Deferred, m.Replayed, m.ListsCollected, m.Unsupported)
	}
	return m
}
