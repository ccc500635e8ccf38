// Package surface defines the narrow rendering-surface abstraction the
// overlay engine is written against, the lifecycle guard around it, and the
// cooperative event loop that drives it.
//
// # Renderer
//
// A [Renderer] owns a live, mutable element set (nodes, edges and halos),
// computes layouts asynchronously, and reports what happens to it through a
// small enumerated event set: [LayoutStop], [PositionChanged],
// [DataChanged], [RenderFrame] and [ViewportChanged]. The concrete engine is
// a black box; package headless provides an in-memory implementation and
// package server a remote one driven over a WebSocket.
//
// A renderer can be destroyed or detached from its container at any time,
// including while callbacks scheduled against it are still pending.
//
// # Handle
//
// Callers never hold a Renderer directly. [Acquire] returns a [Handle]
// whose methods check [IsUsable] before touching the renderer and turn into
// no-ops once the handle is released or the renderer is gone. Renderer
// panics are recovered and reported as errors.
//
// # Loop
//
// All renderer callbacks, deferred turns and frame callbacks run on one
// goroutine owned by a [Loop], so overlay state needs no locking. Other
// goroutines hand work to the loop with [Loop.Post].
//
//	loop := surface.NewLoop()
//	go loop.Run(ctx)
//	loop.Post(func() { h.Fit(nil, 30) })
package surface
