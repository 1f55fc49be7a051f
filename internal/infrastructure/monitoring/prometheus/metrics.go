// Package prometheus wires the service's Prometheus instrumentation.  All
// instruments are registered on a private registry so tests can construct
// isolated collectors without duplicate-registration panics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the service emits.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Selection engine
	SelectedBuildings      prometheus.Gauge
	RegistryMutationsTotal *prometheus.CounterVec
	AggregationsTotal      prometheus.Counter

	// External providers
	ProviderRequestDuration *prometheus.HistogramVec
	ProviderErrorsTotal     *prometheus.CounterVec

	// Insights cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// New constructs a Metrics set registered on a fresh private registry,
// including the standard Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solar",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed, partitioned by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solar",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		SelectedBuildings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "solar",
			Subsystem: "selection",
			Name:      "selected_buildings",
			Help:      "Number of buildings currently in the selection registry.",
		}),
		RegistryMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solar",
			Subsystem: "selection",
			Name:      "registry_mutations_total",
			Help:      "Registry mutations, partitioned by operation.",
		}, []string{"operation"}),
		AggregationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "solar",
			Subsystem: "selection",
			Name:      "aggregations_total",
			Help:      "Aggregate computations performed.",
		}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "solar",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "External provider request latency, partitioned by provider.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solar",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "External provider failures, partitioned by provider and upstream status.",
		}, []string{"provider", "status"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "solar",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Insights cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "solar",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Insights cache misses.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SelectedBuildings,
		m.RegistryMutationsTotal,
		m.AggregationsTotal,
		m.ProviderRequestDuration,
		m.ProviderErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveProviderRequest records one external provider call.  status is the
// upstream HTTP status code, 0 when the request never completed.
func (m *Metrics) ObserveProviderRequest(provider string, status int, elapsed time.Duration, err error) {
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err != nil {
		m.ProviderErrorsTotal.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	}
}
