package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/archmap/pkg/observability"
)

type overlayHooks struct{ r *Registry }

func (h overlayHooks) OnSessionOpen() {
	h.r.SessionsOpen.Inc()
	h.r.SessionsTotal.Inc()
}

func (h overlayHooks) OnSessionClose() { h.r.SessionsOpen.Dec() }

func (h overlayHooks) OnAnalysisLoaded(nodes, _, _ int, d time.Duration) {
	h.r.AnalysesLoaded.Inc()
	h.r.AnalysisNodes.Observe(float64(nodes))
	h.r.LoadDuration.Observe(d.Seconds())
}

func (h overlayHooks) OnSyncPass(synced, _, _, skipped int, d time.Duration) {
	h.r.SyncPasses.Inc()
	h.r.SyncDuration.Observe(d.Seconds())
	h.r.HalosSynced.Add(float64(synced))
	h.r.HalosSkipped.Add(float64(skipped))
}

func (h overlayHooks) OnHaloCreated(string) {
	h.r.HalosCreated.Inc()
	h.r.HalosLive.Inc()
}

func (h overlayHooks) OnHaloRemoved(_, reason string) {
	h.r.HalosRemoved.WithLabelValues(reason).Inc()
	h.r.HalosLive.Dec()
}

func (h overlayHooks) OnGuardRejected(op string) {
	h.r.GuardRejections.WithLabelValues(op).Inc()
}

func (h overlayHooks) OnBadgeRecompute(chips int) {
	h.r.BadgeRecomputes.Inc()
	h.r.BadgeChips.Observe(float64(chips))
}

type cacheHooks struct{ r *Registry }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.r.CacheHits.WithLabelValues(keyType).Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.r.CacheMisses.WithLabelValues(keyType).Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.r.CacheWrites.WithLabelValues(keyType).Inc()
	h.r.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

type httpHooks struct{ r *Registry }

func (h httpHooks) OnRequest(context.Context, string, string) {
	h.r.HTTPRequestsInFlight.Inc()
}

func (h httpHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.r.HTTPRequestsInFlight.Dec()
	h.r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.OverlayHooks = overlayHooks{}
	_ observability.CacheHooks   = cacheHooks{}
	_ observability.HTTPHooks    = httpHooks{}
)
