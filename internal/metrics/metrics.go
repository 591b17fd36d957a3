// Package metrics counts connection and statement activity with Prometheus
// collectors. A Collector is a sqlite.Tracer; install it with
// sqlite.WithTracer and dump it with WriteText.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/FocuswithJustin/sqlexpress/core/cache"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Collector holds the statement metrics for one process. Each Collector
// owns its registry, so several can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	events   *prometheus.CounterVec
	failures *prometheus.CounterVec
	rows     prometheus.Counter
	duration *prometheus.HistogramVec
	cache    *prometheus.GaugeVec
}

var _ sqlite.Tracer = (*Collector)(nil)

// New returns a Collector with its collectors registered.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqlexpress",
		Name:      "events_total",
		Help:      "Connection and statement events by kind.",
	}, []string{"event"})
	c.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqlexpress",
		Name:      "errors_total",
		Help:      "Failed operations by result code and category.",
	}, []string{"code", "category"})
	c.rows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sqlexpress",
		Name:      "rows_total",
		Help:      "Rows produced by Step.",
	})

	buckets := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	c.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sqlexpress",
		Name:      "operation_seconds",
		Help:      "Duration of open, prepare and step calls.",
		Buckets:   buckets,
	}, []string{"event"})

	c.cache = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sqlexpress",
		Name:      "stmt_cache",
		Help:      "Statement cache counters as last observed.",
	}, []string{"stat"})

	c.registry.MustRegister(c.events, c.failures, c.rows, c.duration, c.cache)
	return c
}

// Registry returns the registry the collectors are registered with.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Trace implements sqlite.Tracer.
func (c *Collector) Trace(ev sqlite.TraceEvent) {
	kind := ev.Kind.String()
	c.events.WithLabelValues(kind).Inc()

	if ev.Err != nil {
		code := sqlite.CodeOf(ev.Err)
		c.failures.WithLabelValues(code.Name(), code.Category().String()).Inc()
	}
	if ev.Kind == sqlite.EventStep && ev.Err == nil && ev.Step == sqlite.StepRow {
		c.rows.Inc()
	}
	switch ev.Kind {
	case sqlite.EventOpen, sqlite.EventPrepare, sqlite.EventStep:
		c.duration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	}
}

// ObserveStmtCache records a snapshot of a connection's statement cache
// counters, typically taken just before the connection is closed.
func (c *Collector) ObserveStmtCache(s cache.Stats) {
	c.cache.WithLabelValues("hits").Set(float64(s.Hits))
	c.cache.WithLabelValues("misses").Set(float64(s.Misses))
	c.cache.WithLabelValues("evictions").Set(float64(s.Evictions))
	c.cache.WithLabelValues("size").Set(float64(s.Size))
	c.cache.WithLabelValues("max_size").Set(float64(s.MaxSize))
}

// WriteText writes every metric in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
