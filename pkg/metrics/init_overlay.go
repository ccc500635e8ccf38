package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOverlayMetrics() {
	f := promauto.With(r.registry)

	r.SessionsOpen = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_open",
		Help:      "View sessions currently open",
	})
	r.SessionsTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "View sessions opened",
	})
	r.AnalysesLoaded = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_loaded_total",
		Help:      "Analyses loaded into view sessions",
	})
	r.AnalysisNodes = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_nodes",
		Help:      "Nodes per loaded analysis",
		Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
	})
	r.LoadDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_load_duration_seconds",
		Help:      "Time to map and render an analysis",
		Buckets:   prometheus.DefBuckets,
	})

	r.SyncPasses = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "sync_passes_total",
		Help:      "Full halo synchronization passes",
	})
	r.SyncDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "sync_duration_seconds",
		Help:      "Duration of full halo synchronization passes",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})
	r.HalosSynced = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "synced_total",
		Help:      "Halos whose geometry was synchronized",
	})
	r.HalosSkipped = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "skipped_total",
		Help:      "Halo syncs skipped because geometry was not ready",
	})
	r.HalosCreated = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "created_total",
		Help:      "Halos created",
	})
	r.HalosRemoved = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "removed_total",
		Help:      "Halos removed, by reason",
	}, []string{"reason"})
	r.HalosLive = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "halo",
		Name:      "live",
		Help:      "Halos currently on any surface",
	})

	r.GuardRejections = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "surface",
		Name:      "guard_rejections_total",
		Help:      "Surface operations refused because the surface was released or unusable",
	}, []string{"op"})

	r.BadgeRecomputes = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "badge",
		Name:      "recomputes_total",
		Help:      "Coalesced badge recomputations",
	})
	r.BadgeChips = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "badge",
		Name:      "chips",
		Help:      "Chips placed per recomputation",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
}
