package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)
	labels := []string{"key_type"}

	r.CacheHits = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits",
	}, labels)
	r.CacheMisses = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses",
	}, labels)
	r.CacheWrites = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "writes_total",
		Help:      "Cache writes",
	}, labels)
	r.CacheBytes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "written_bytes_total",
		Help:      "Bytes written to the cache",
	}, labels)
}
