// Package metrics exposes graph view activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records view, node and resolver metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	viewsOpen       prometheus.Gauge
	framesRendered  *prometheus.CounterVec
	nodesAdded      prometheus.Counter
	nodesMerged     prometheus.Counter
	nodesRemoved    prometheus.Counter
	nodesPerView    *prometheus.GaugeVec
	addsDropped     prometheus.Counter
	resolverErrors  prometheus.Counter
	resolveDuration prometheus.Histogram
}

// NewCollector creates a collector with every metric registered
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "bubble_map_explorer"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.viewsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "views",
		Name:      "open",
		Help:      "Number of open graph views",
	})

	c.framesRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "frames_total",
			Help:      "Total number of frames rendered",
		},
		[]string{"view"},
	)

	c.nodesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "nodes",
		Name:      "added_total",
		Help:      "Total number of nodes created",
	})

	c.nodesMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "nodes",
		Name:      "merged_total",
		Help:      "Total number of adds merged into an existing node",
	})

	c.nodesRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "nodes",
		Name:      "removed_total",
		Help:      "Total number of nodes removed",
	})

	c.nodesPerView = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nodes",
			Name:      "count",
			Help:      "Current number of nodes in a view",
		},
		[]string{"view"},
	)

	c.addsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "nodes",
		Name:      "adds_dropped_total",
		Help:      "Total number of adds dropped because an add for the address was in flight",
	})

	c.resolverErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolver",
		Name:      "errors_total",
		Help:      "Total number of failed wallet resolutions",
	})

	c.resolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "resolver",
		Name:      "duration_seconds",
		Help:      "Time taken to resolve wallet metadata",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	})

	c.registry.MustRegister(
		c.viewsOpen,
		c.framesRendered,
		c.nodesAdded,
		c.nodesMerged,
		c.nodesRemoved,
		c.nodesPerView,
		c.addsDropped,
		c.resolverErrors,
		c.resolveDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the Prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ViewOpened counts an opened view
func (c *Collector) ViewOpened(string) {
	c.viewsOpen.Inc()
}

// ViewClosed counts a closed view and drops its per-view series
func (c *Collector) ViewClosed(viewID string) {
	c.viewsOpen.Dec()
	c.framesRendered.DeleteLabelValues(viewID)
	c.nodesPerView.DeleteLabelValues(viewID)
}

// FrameRendered counts a composed frame
func (c *Collector) FrameRendered(viewID string) {
	c.framesRendered.WithLabelValues(viewID).Inc()
}

// NodeAdded counts a created or merged node
func (c *Collector) NodeAdded(_ string, created bool) {
	if created {
		c.nodesAdded.Inc()
		return
	}
	c.nodesMerged.Inc()
}

// NodeRemoved counts a removed node
func (c *Collector) NodeRemoved(string) {
	c.nodesRemoved.Inc()
}

// NodeCount sets the node gauge of a view
func (c *Collector) NodeCount(viewID string, n int) {
	c.nodesPerView.WithLabelValues(viewID).Set(float64(n))
}

// AddDropped counts an add dropped while another was in flight
func (c *Collector) AddDropped(string) {
	c.addsDropped.Inc()
}

// ResolveFailed counts a resolver error
func (c *Collector) ResolveFailed(string) {
	c.resolverErrors.Inc()
}

// ResolveDuration records how long a resolve took
func (c *Collector) ResolveDuration(d time.Duration) {
	c.resolveDuration.Observe(d.Seconds())
}
