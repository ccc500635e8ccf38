// Package observability provides hooks for metrics and tracing.
//
// Overlay, cache and HTTP code emit events through small hook interfaces with
// no-op defaults. Backends (see package metrics) register implementations at
// startup; libraries never import a metrics framework directly.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    reg := metrics.New()
//	    observability.SetOverlayHooks(reg)
//	    observability.SetHTTPHooks(reg)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Overlay().OnSyncPass(synced, created, removed, skipped, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Overlay Hooks
// =============================================================================

// OverlayHooks receives events from view sessions and their overlays. They
// are called on the session's event loop and must not block.
type OverlayHooks interface {
	// Session lifecycle
	OnSessionOpen()
	OnSessionClose()
	OnAnalysisLoaded(nodes, edges, detections int, duration time.Duration)

	// Halo events
	OnSyncPass(synced, created, removed, skipped int, duration time.Duration)
	OnHaloCreated(node string)
	OnHaloRemoved(node, reason string)

	// OnGuardRejected records a surface operation refused because the
	// surface was released, destroyed or detached.
	OnGuardRejected(op string)

	// OnBadgeRecompute records one coalesced badge recomputation.
	OnBadgeRecompute(chips int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request for a route pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopOverlayHooks is a no-op implementation of OverlayHooks.
type NoopOverlayHooks struct{}

func (NoopOverlayHooks) OnSessionOpen()                                {}
func (NoopOverlayHooks) OnSessionClose()                               {}
func (NoopOverlayHooks) OnAnalysisLoaded(int, int, int, time.Duration) {}
func (NoopOverlayHooks) OnSyncPass(int, int, int, int, time.Duration)  {}
func (NoopOverlayHooks) OnHaloCreated(string)                          {}
func (NoopOverlayHooks) OnHaloRemoved(string, string)                  {}
func (NoopOverlayHooks) OnGuardRejected(string)                        {}
func (NoopOverlayHooks) OnBadgeRecompute(int)                          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	overlayHooks OverlayHooks = NoopOverlayHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetOverlayHooks registers custom overlay hooks.
// This should be called once at application startup before any session opens.
func SetOverlayHooks(h OverlayHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		overlayHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Overlay returns the registered overlay hooks.
func Overlay() OverlayHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return overlayHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	overlayHooks = NoopOverlayHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
