// Package headless is an in-memory surface.Renderer.
//
// It keeps the element set, geometry and camera in memory, places nodes with
// a trivial layered or grid placement when a layout runs, and emits the same
// events a browser renderer would. The CLI uses it to compute overlay state
// without a display, and tests use it as a scriptable fake: Detach, Unsettle
// and Drag simulate the failure modes and user interactions of a live
// surface.
//
// All methods must be called on the loop the renderer was created with.
package headless

import (
	"errors"
	"math"
	"slices"

	"github.com/matzehuels/archmap/pkg/surface"
)

// ErrDestroyed is returned by operations on a destroyed renderer.
var ErrDestroyed = errors.New("headless: renderer destroyed")

// Node sizing.
const (
	MinNodeWidth = 80
	NodeHeight   = 40
	charWidth    = 8
	labelPadding = 24

	minZoom = 0.05
	maxZoom = 4
)

// DefaultContainer is the container size of a renderer created without
// WithContainer.
var DefaultContainer = surface.Size{Width: 1200, Height: 800}

// Renderer is an in-memory rendering surface.
type Renderer struct {
	sched surface.Scheduler

	container surface.Size
	attached  bool
	destroyed bool
	viewport  surface.Viewport

	order     []string
	els       map[string]*surface.Element
	unsettled map[string]bool

	listeners   map[int]surface.Listener
	listenerIDs []int
	nextID      int

	frameCancel  func()
	layoutCancel func()
	frames       int
	layoutRuns   int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithContainer sets the initial container size.
func WithContainer(s surface.Size) Option {
	return func(r *Renderer) { r.container = s }
}

// Detached creates the renderer without a container.
func Detached() Option {
	return func(r *Renderer) { r.attached = false }
}

// New returns an attached, empty renderer scheduling layouts and frames on
// sched. A nil sched runs layouts synchronously and never renders frames on
// its own.
func New(sched surface.Scheduler, opts ...Option) *Renderer {
	r := &Renderer{
		sched:     sched,
		container: DefaultContainer,
		attached:  true,
		viewport:  surface.Viewport{Zoom: 1},
		els:       make(map[string]*surface.Element),
		unsettled: make(map[string]bool),
		listeners: make(map[int]surface.Listener),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// =============================================================================
// State
// =============================================================================

// Destroyed implements surface.Renderer.
func (r *Renderer) Destroyed() bool { return r.destroyed }

// Attached implements surface.Renderer.
func (r *Renderer) Attached() bool { return r.attached }

// ContainerSize implements surface.Renderer.
func (r *Renderer) ContainerSize() (surface.Size, bool) {
	if !r.attached {
		return surface.Size{}, false
	}
	return r.container, true
}

// Destroy implements surface.Renderer. It cancels pending frames and layout
// runs and drops all listeners.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.cancelFrame()
	if r.layoutCancel != nil {
		r.layoutCancel()
		r.layoutCancel = nil
	}
	clear(r.listeners)
	r.listenerIDs = nil
}

// Detach unmounts the renderer from its container.
func (r *Renderer) Detach() { r.attached = false }

// Attach mounts the renderer into a container of size s.
func (r *Renderer) Attach(s surface.Size) {
	r.attached = true
	r.container = s
}

// =============================================================================
// Element set
// =============================================================================

// Add implements surface.Renderer.
func (r *Renderer) Add(els ...surface.Element) error {
	if r.destroyed {
		return ErrDestroyed
	}
	for _, el := range els {
		if _, ok := r.els[el.ID]; !ok {
			r.order = append(r.order, el.ID)
		}
		el.Data.Flags = slices.Clone(el.Data.Flags)
		el.Data.Colors = slices.Clone(el.Data.Colors)
		r.els[el.ID] = &el
	}
	r.requestFrame()
	return nil
}

// Remove implements surface.Renderer. Removing a node also removes the
// edges attached to it.
func (r *Renderer) Remove(ids ...string) error {
	if r.destroyed {
		return ErrDestroyed
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		el, ok := r.els[id]
		if !ok {
			continue
		}
		drop[id] = true
		if el.Kind == surface.KindNode {
			for _, other := range r.els {
				if other.Kind == surface.KindEdge && (other.Source == id || other.Target == id) {
					drop[other.ID] = true
				}
			}
		}
	}
	if len(drop) == 0 {
		return nil
	}
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return drop[id] })
	for id := range drop {
		delete(r.els, id)
		delete(r.unsettled, id)
	}
	r.requestFrame()
	return nil
}

// Replace implements surface.Renderer.
func (r *Renderer) Replace(els []surface.Element) error {
	if r.destroyed {
		return ErrDestroyed
	}
	r.order = nil
	clear(r.els)
	clear(r.unsettled)
	return r.Add(els...)
}

// Get implements surface.Renderer.
func (r *Renderer) Get(id string) (surface.Element, bool) {
	el, ok := r.els[id]
	if !ok {
		return surface.Element{}, false
	}
	out := *el
	out.Data.Flags = slices.Clone(el.Data.Flags)
	out.Data.Colors = slices.Clone(el.Data.Colors)
	return out, true
}

// Has reports whether the element exists.
func (r *Renderer) Has(id string) bool {
	_, ok := r.els[id]
	return ok
}

// IDs implements surface.Renderer.
func (r *Renderer) IDs(kind surface.Kind) []string {
	var ids []string
	for _, id := range r.order {
		if r.els[id].Kind == kind {
			ids = append(ids, id)
		}
	}
	return ids
}

// Update implements surface.Renderer.
func (r *Renderer) Update(id string, fn func(*surface.Data)) error {
	if r.destroyed {
		return ErrDestroyed
	}
	el, ok := r.els[id]
	if !ok {
		return surface.ErrUnknownElement
	}
	fn(&el.Data)
	r.requestFrame()
	if el.Kind == surface.KindNode {
		r.emit(surface.Event{Type: surface.DataChanged, Node: id})
	}
	return nil
}

// SetPosition implements surface.Renderer. Programmatic moves apply to
// locked elements too.
func (r *Renderer) SetPosition(id string, p surface.Point) error {
	if r.destroyed {
		return ErrDestroyed
	}
	el, ok := r.els[id]
	if !ok {
		return surface.ErrUnknownElement
	}
	el.Position = p
	r.requestFrame()
	if el.Kind == surface.KindNode {
		r.emit(surface.Event{Type: surface.PositionChanged, Node: id})
	}
	return nil
}

// Drag simulates a user dragging an element to p. Locked elements and edges
// do not move; Drag reports whether the element moved.
func (r *Renderer) Drag(id string, p surface.Point) bool {
	el, ok := r.els[id]
	if !ok || r.destroyed || el.Data.Locked || el.Kind == surface.KindEdge {
		return false
	}
	return r.SetPosition(id, p) == nil
}

// =============================================================================
// Geometry
// =============================================================================

// NodeSize returns the intrinsic rendered size of a node with the given
// label.
func NodeSize(label string) surface.Size {
	w := float64(charWidth*len(label) + labelPadding)
	return surface.Size{Width: math.Max(MinNodeWidth, w), Height: NodeHeight}
}

func (r *Renderer) size(el *surface.Element) surface.Size {
	s := surface.Size{Width: el.Data.Width, Height: el.Data.Height}
	if el.Kind == surface.KindNode {
		def := NodeSize(el.Data.Label)
		if s.Width <= 0 {
			s.Width = def.Width
		}
		if s.Height <= 0 {
			s.Height = def.Height
		}
	}
	return s
}

// BoundingBox implements surface.Renderer.
func (r *Renderer) BoundingBox(id string) (surface.Rect, error) {
	if r.destroyed {
		return surface.Rect{}, ErrDestroyed
	}
	el, ok := r.els[id]
	if !ok {
		return surface.Rect{}, surface.ErrUnknownElement
	}
	if r.unsettled[id] {
		return surface.Rect{}, surface.ErrNotRendered
	}
	if el.Kind == surface.KindEdge {
		src, sok := r.els[el.Source]
		dst, dok := r.els[el.Target]
		if !sok || !dok {
			return surface.Rect{}, surface.ErrNotRendered
		}
		return surface.Rect{X: src.Position.X, Y: src.Position.Y}.
			Union(surface.Rect{X: dst.Position.X, Y: dst.Position.Y}), nil
	}
	return surface.RectAround(el.Position, r.size(el)), nil
}

// Unsettle marks elements as mid-render: geometry queries fail with
// surface.ErrNotRendered until the next frame.
func (r *Renderer) Unsettle(ids ...string) {
	for _, id := range ids {
		if _, ok := r.els[id]; ok {
			r.unsettled[id] = true
		}
	}
	r.requestFrame()
}

// Viewport implements surface.Renderer.
func (r *Renderer) Viewport() surface.Viewport { return r.viewport }

// SetViewport implements surface.Renderer.
func (r *Renderer) SetViewport(v surface.Viewport) error {
	if r.destroyed {
		return ErrDestroyed
	}
	v.Zoom = clampZoom(v.Zoom)
	r.viewport = v
	r.requestFrame()
	r.emit(surface.Event{Type: surface.ViewportChanged})
	return nil
}

// Resize implements surface.Renderer.
func (r *Renderer) Resize() error {
	if r.destroyed {
		return ErrDestroyed
	}
	r.requestFrame()
	return nil
}

// Fit implements surface.Renderer. Unknown and unsettled elements are left
// out of the fitted box.
func (r *Renderer) Fit(ids []string, padding float64) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if len(ids) == 0 {
		ids = r.IDs(surface.KindNode)
	}
	var box surface.Rect
	for _, id := range ids {
		b, err := r.BoundingBox(id)
		if err != nil {
			continue
		}
		box = box.Union(b)
	}
	if box.W == 0 && box.H == 0 {
		return nil
	}

	zoom := math.Min(
		(r.container.Width-2*padding)/math.Max(box.W, 1),
		(r.container.Height-2*padding)/math.Max(box.H, 1),
	)
	zoom = clampZoom(zoom)
	c := box.Center()
	return r.SetViewport(surface.Viewport{
		Zoom: zoom,
		Pan: surface.Point{
			X: r.container.Width/2 - c.X*zoom,
			Y: r.container.Height/2 - c.Y*zoom,
		},
	})
}

func clampZoom(z float64) float64 {
	if z <= 0 || math.IsNaN(z) {
		return 1
	}
	return math.Max(minZoom, math.Min(maxZoom, z))
}

// =============================================================================
// Events and frames
// =============================================================================

// Subscribe implements surface.Renderer.
func (r *Renderer) Subscribe(fn surface.Listener) func() {
	if r.destroyed {
		return func() {}
	}
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.listenerIDs = append(r.listenerIDs, id)
	return func() {
		delete(r.listeners, id)
		r.listenerIDs = slices.DeleteFunc(r.listenerIDs, func(x int) bool { return x == id })
	}
}

// Listeners returns the number of registered listeners.
func (r *Renderer) Listeners() int { return len(r.listeners) }

func (r *Renderer) emit(ev surface.Event) {
	for _, id := range slices.Clone(r.listenerIDs) {
		if r.destroyed {
			return
		}
		if fn, ok := r.listeners[id]; ok {
			fn(ev)
		}
	}
}

func (r *Renderer) requestFrame() {
	if r.sched == nil || r.frameCancel != nil || r.destroyed {
		return
	}
	r.frameCancel = r.sched.NextFrame(func() {
		r.frameCancel = nil
		r.Frame()
	})
}

func (r *Renderer) cancelFrame() {
	if r.frameCancel != nil {
		r.frameCancel()
		r.frameCancel = nil
	}
}

// Frame renders immediately: every element settles and RenderFrame is
// emitted.
func (r *Renderer) Frame() {
	if r.destroyed {
		return
	}
	r.cancelFrame()
	clear(r.unsettled)
	r.frames++
	r.emit(surface.Event{Type: surface.RenderFrame})
}

// Frames returns the number of frames rendered.
func (r *Renderer) Frames() int { return r.frames }

var _ surface.Renderer = (*Renderer)(nil)
