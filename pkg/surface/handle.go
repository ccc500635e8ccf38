package surface

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/observability"
)

// Handle is the capability-checked accessor for a Renderer. Every method
// first checks that the handle has not been released and that the renderer
// is still usable; if not it returns zero values and a nil error without
// touching the renderer.
//
// A Handle is not safe for concurrent use; it belongs to one event loop.
type Handle struct {
	r        Renderer
	logger   *log.Logger
	released bool
	unsubs   []func()
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithLogger sets the logger used to report rejected operations and
// recovered renderer panics.
func WithLogger(l *log.Logger) HandleOption {
	return func(h *Handle) {
		if l != nil {
			h.logger = l
		}
	}
}

// Acquire wraps r in a Handle. A nil r yields a handle that is never usable.
func Acquire(r Renderer, opts ...HandleOption) *Handle {
	h := &Handle{r: r, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Usable reports whether operations on h reach the renderer.
func (h *Handle) Usable() bool {
	return h != nil && !h.released && IsUsable(h.r)
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool { return h == nil || h.released }

// Release detaches every listener registered through h and turns all further
// operations into no-ops. It does not destroy the renderer. Release is
// idempotent.
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	unsubs := h.unsubs
	h.unsubs = nil
	for _, u := range unsubs {
		h.recovered("unsubscribe", func() error { u(); return nil })
	}
}

// allow reports whether op may reach the renderer, recording a rejection
// otherwise.
func (h *Handle) allow(op string) bool {
	if h.Usable() {
		return true
	}
	if h != nil {
		h.logger.Debug("surface unusable, skipping", "op", op)
	}
	observability.Overlay().OnGuardRejected(op)
	return false
}

// recovered runs fn, converting a renderer panic into an error.
func (h *Handle) recovered(op string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Warn("renderer panic recovered", "op", op, "panic", p)
			err = fmt.Errorf("surface: %s: renderer panic: %v", op, p)
		}
	}()
	return fn()
}

// do guards and runs a mutating operation.
func (h *Handle) do(op string, fn func() error) error {
	if !h.allow(op) {
		return nil
	}
	return h.recovered(op, fn)
}

// =============================================================================
// Queries
// =============================================================================

// ContainerSize returns the container dimensions, false if unknown or the
// surface is unusable.
func (h *Handle) ContainerSize() (size Size, ok bool) {
	_ = h.do("container_size", func() error {
		size, ok = h.r.ContainerSize()
		return nil
	})
	return size, ok
}

// Get returns a copy of the element with the given ID.
func (h *Handle) Get(id string) (el Element, ok bool) {
	_ = h.do("get", func() error {
		el, ok = h.r.Get(id)
		return nil
	})
	return el, ok
}

// Has reports whether the element exists.
func (h *Handle) Has(id string) bool {
	_, ok := h.Get(id)
	return ok
}

// IDs returns the IDs of all elements of kind.
func (h *Handle) IDs(kind Kind) (ids []string) {
	_ = h.do("ids", func() error {
		ids = h.r.IDs(kind)
		return nil
	})
	return ids
}

// BoundingBox returns the rendered box of an element.
func (h *Handle) BoundingBox(id string) (box Rect, err error) {
	err = h.do("bounding_box", func() error {
		var qerr error
		box, qerr = h.r.BoundingBox(id)
		return qerr
	})
	return box, err
}

// Viewport returns the current camera. An unusable surface reports the
// identity viewport.
func (h *Handle) Viewport() Viewport {
	v := Viewport{Zoom: 1}
	_ = h.do("viewport", func() error {
		v = h.r.Viewport()
		return nil
	})
	return v
}

// =============================================================================
// Mutations
// =============================================================================

// Add inserts elements.
func (h *Handle) Add(els ...Element) error {
	return h.do("add", func() error { return h.r.Add(els...) })
}

// Remove deletes elements.
func (h *Handle) Remove(ids ...string) error {
	return h.do("remove", func() error { return h.r.Remove(ids...) })
}

// Replace swaps the whole element set.
func (h *Handle) Replace(els []Element) error {
	return h.do("replace", func() error { return h.r.Replace(els) })
}

// Update mutates an element's data.
func (h *Handle) Update(id string, fn func(*Data)) error {
	return h.do("update", func() error { return h.r.Update(id, fn) })
}

// SetPosition moves an element.
func (h *Handle) SetPosition(id string, p Point) error {
	return h.do("set_position", func() error { return h.r.SetPosition(id, p) })
}

// SetViewport moves the camera.
func (h *Handle) SetViewport(v Viewport) error {
	return h.do("set_viewport", func() error { return h.r.SetViewport(v) })
}

// Resize re-reads the container dimensions.
func (h *Handle) Resize() error {
	return h.do("resize", func() error { return h.r.Resize() })
}

// Fit fits the camera to the given elements.
func (h *Handle) Fit(ids []string, padding float64) error {
	return h.do("fit", func() error { return h.r.Fit(ids, padding) })
}

// RunLayout starts a layout run.
func (h *Handle) RunLayout(cfg layout.Config) error {
	return h.do("layout", func() error { return h.r.RunLayout(cfg) })
}

// SafeFit resizes the surface to its container and fits the viewport to the
// given elements. It is best effort: renderer failures are logged and
// swallowed.
func (h *Handle) SafeFit(ids []string, padding float64) {
	if err := h.Resize(); err != nil {
		h.logger.Debug("resize failed", "err", err)
		return
	}
	if err := h.Fit(ids, padding); err != nil {
		h.logger.Debug("fit failed", "err", err)
	}
}

// Subscribe registers fn with the renderer. The listener is dropped when
// the handle is released, and is never invoked after release even if the
// renderer keeps emitting. On an unusable surface the returned func is a
// no-op.
func (h *Handle) Subscribe(fn Listener) (unsubscribe func()) {
	unsubscribe = func() {}
	_ = h.do("subscribe", func() error {
		guarded := func(ev Event) {
			if h.released {
				return
			}
			fn(ev)
		}
		u := h.r.Subscribe(guarded)
		h.unsubs = append(h.unsubs, u)
		unsubscribe = u
		return nil
	})
	return unsubscribe
}
