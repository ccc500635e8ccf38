// Package metrics exposes Prometheus metrics for overlay sessions, caches
// and the HTTP API.
//
// A [Registry] implements the observability hook interfaces; install it
// once at startup and serve [Registry.Handler] on /metrics:
//
//	reg := metrics.NewRegistry()
//	reg.Install()
//	r.Handle("/metrics", reg.Handler())
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/archmap/pkg/observability"
)

const namespace = "archmap"

// Registry holds all metrics for the application.
type Registry struct {
	registry *prometheus.Registry

	// Overlay
	SessionsOpen    prometheus.Gauge
	SessionsTotal   prometheus.Counter
	AnalysesLoaded  prometheus.Counter
	AnalysisNodes   prometheus.Histogram
	LoadDuration    prometheus.Histogram
	SyncPasses      prometheus.Counter
	SyncDuration    prometheus.Histogram
	HalosSynced     prometheus.Counter
	HalosSkipped    prometheus.Counter
	HalosCreated    prometheus.Counter
	HalosRemoved    *prometheus.CounterVec
	HalosLive       prometheus.Gauge
	GuardRejections *prometheus.CounterVec
	BadgeRecomputes prometheus.Counter
	BadgeChips      prometheus.Histogram

	// Cache
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheWrites *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewRegistry creates a registry with every metric registered, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initOverlayMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// Prometheus returns the underlying registry.
func (r *Registry) Prometheus() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the global overlay, cache and HTTP hooks.
func (r *Registry) Install() {
	observability.SetOverlayHooks(overlayHooks{r})
	observability.SetCacheHooks(cacheHooks{r})
	observability.SetHTTPHooks(httpHooks{r})
}

// RecordHTTPRequest records a completed request.
func (r *Registry) RecordHTTPRequest(method, route string, status int) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
