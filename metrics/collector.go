// Package metrics exposes registry activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/adstore/notify"
	"github.com/poiesic/adstore/registry"
)

const namespace = "adstore"

// Collector observes a registry's bus and keeps Prometheus metrics about it.
type Collector struct {
	reg        *registry.Registry
	registerer prometheus.Registerer

	events  *prometheus.CounterVec
	entries prometheus.GaugeFunc
	memory  prometheus.GaugeFunc
}

// New registers the collector's metrics on r and subscribes it to every
// event type of reg's bus.
func New(reg *registry.Registry, r prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		reg:        reg,
		registerer: r,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "events_total",
			Help:      "Registry notifications published, by type.",
		}, []string{"type"}),
		entries: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "entries",
			Help:      "Names bound at the top level of the registry.",
		}, func() float64 {
			return float64(reg.Size())
		}),
		memory: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "memory_bytes",
			Help:      "Memory held by top-level objects, including group members.",
		}, func() float64 {
			var total uint64
			for _, obj := range reg.TopLevelItems() {
				total += obj.MemorySize()
			}
			return float64(total)
		}),
	}

	registered := make([]prometheus.Collector, 0, 3)
	for _, m := range []prometheus.Collector{c.events, c.entries, c.memory} {
		if err := r.Register(m); err != nil {
			for _, done := range registered {
				r.Unregister(done)
			}
			return nil, err
		}
		registered = append(registered, m)
	}

	// Pre-create every label so all series export from the start.
	for _, t := range notify.AllEventTypes {
		c.events.WithLabelValues(string(t))
		reg.Bus().Subscribe(t, c)
	}
	return c, nil
}

// HandleEvent counts ev.
func (c *Collector) HandleEvent(ev notify.Event) error {
	c.events.WithLabelValues(string(ev.Type)).Inc()
	return nil
}

// Close unsubscribes the collector and unregisters its metrics.
func (c *Collector) Close() {
	for _, t := range notify.AllEventTypes {
		c.reg.Bus().Unsubscribe(t, c)
	}
	c.registerer.Unregister(c.events)
	c.registerer.Unregister(c.entries)
	c.registerer.Unregister(c.memory)
}
