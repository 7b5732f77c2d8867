// Package metrics provides Prometheus metrics collection for Zacre.
package metrics

import (
	"time"

	"github.com/artpar/zacre/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zacre"

// Collector holds all Prometheus metrics for Zacre.
type Collector struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Rendering metrics
	PageRenders    *prometheus.CounterVec
	PageDuration   prometheus.Histogram
	ModuleOutcomes *prometheus.CounterVec

	// Dispatch metrics
	Actions *prometheus.CounterVec

	// Registry metrics
	RegistryReloads      *prometheus.CounterVec
	RegistryPages        prometheus.Gauge
	RegistryLastReloaded prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector on a custom registry.
// Tests use it to avoid duplicate registration on global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),

		PageRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_renders_total",
				Help:      "Total number of page documents assembled",
			},
			[]string{"found"},
		),
		PageDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_render_duration_seconds",
				Help:      "Page assembly duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		ModuleOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_renders_total",
				Help:      "Module instances produced, by module and outcome (loader, render, error)",
			},
			[]string{"module", "outcome"},
		),

		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_actions_total",
				Help:      "Module actions executed, by module and result",
			},
			[]string{"module", "result"},
		),

		RegistryReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_reloads_total",
				Help:      "Page registry rebuilds, by result",
			},
			[]string{"result"},
		),
		RegistryPages: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_pages",
				Help:      "Active pages in the current registry snapshot",
			},
		),
		RegistryLastReloaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_last_reload_timestamp",
				Help:      "Unix timestamp of the last successful registry rebuild",
			},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
	}
}

// ModuleRendered records how one instance was produced.
func (c *Collector) ModuleRendered(shortName, outcome string) {
	c.ModuleOutcomes.WithLabelValues(shortName, outcome).Inc()
}

// PageRendered records a document assembly.
func (c *Collector) PageRendered(found bool, d time.Duration) {
	label := "false"
	if found {
		label = "true"
	}
	c.PageRenders.WithLabelValues(label).Inc()
	c.PageDuration.Observe(d.Seconds())
}

// ActionExecuted records one action dispatch.
func (c *Collector) ActionExecuted(shortName string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Actions.WithLabelValues(shortName, result).Inc()
}

// RegistryReloaded records a registry rebuild.
func (c *Collector) RegistryReloaded(pages int, err error) {
	if err != nil {
		c.RegistryReloads.WithLabelValues("error").Inc()
		return
	}
	c.RegistryReloads.WithLabelValues("ok").Inc()
	c.RegistryPages.Set(float64(pages))
	c.RegistryLastReloaded.SetToCurrentTime()
}

// Ensure interface compliance.
var _ ports.RenderObserver = (*Collector)(nil)
