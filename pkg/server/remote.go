package server

import (
	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/surface"
	"github.com/matzehuels/archmap/pkg/surface/headless"
	"github.com/matzehuels/archmap/pkg/view"
)

// Op names sent to live clients.
const (
	OpHello      = "hello"
	OpReplace    = "replace"
	OpAdd        = "add"
	OpRemove     = "remove"
	OpUpdate     = "update"
	OpPosition   = "position"
	OpViewport   = "viewport"
	OpLayout     = "layout"
	OpLayoutStop = "layoutstop"
	OpBadges     = "badges"
	OpTooltip    = "tooltip"
	OpStats      = "stats"
	OpError      = "error"
)

// Op is one server-to-client message of a live session.
type Op struct {
	Op       string            `json:"op"`
	Session  string            `json:"session,omitempty"`
	Elements []surface.Element `json:"elements,omitempty"`
	IDs      []string          `json:"ids,omitempty"`
	ID       string            `json:"id,omitempty"`
	Data     *surface.Data     `json:"data,omitempty"`
	Position *surface.Point    `json:"position,omitempty"`
	Viewport *surface.Viewport `json:"viewport,omitempty"`
	Layout   string            `json:"layout,omitempty"`
	Layouts  []string          `json:"layouts,omitempty"`
	Badges   []overlay.Badge   `json:"badges,omitempty"`
	Tooltip  *view.Tooltip     `json:"tooltip,omitempty"`
	Stats    *annotate.Stats   `json:"stats,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Remote is the server side of a browser surface. It keeps an in-memory
// mirror of the element set, geometry and camera, runs layouts on the
// mirror, and forwards every change to the client through send.
//
// Client reports (container size, drags, camera moves) are applied to the
// mirror with the Client* methods and reach listeners as ordinary events.
type Remote struct {
	*headless.Renderer
	send  func(Op)
	unsub func()
}

// NewRemote creates a remote surface scheduled on sched.
func NewRemote(sched surface.Scheduler, send func(Op), opts ...headless.Option) *Remote {
	r := &Remote{Renderer: headless.New(sched, opts...), send: send}
	r.unsub = r.Renderer.Subscribe(r.forward)
	return r
}

// forward relays mirror events that carry state the client does not have.
func (r *Remote) forward(ev surface.Event) {
	switch ev.Type {
	case surface.PositionChanged:
		if el, ok := r.Renderer.Get(ev.Node); ok {
			p := el.Position
			r.send(Op{Op: OpPosition, ID: el.ID, Position: &p})
		}
	case surface.LayoutStop:
		r.send(Op{Op: OpLayoutStop})
	}
}

// Add implements surface.Renderer.
func (r *Remote) Add(els ...surface.Element) error {
	if err := r.Renderer.Add(els...); err != nil {
		return err
	}
	r.send(Op{Op: OpAdd, Elements: r.snapshot(els)})
	return nil
}

// Remove implements surface.Renderer.
func (r *Remote) Remove(ids ...string) error {
	if err := r.Renderer.Remove(ids...); err != nil {
		return err
	}
	r.send(Op{Op: OpRemove, IDs: append([]string(nil), ids...)})
	return nil
}

// Replace implements surface.Renderer.
func (r *Remote) Replace(els []surface.Element) error {
	if err := r.Renderer.Replace(els); err != nil {
		return err
	}
	r.send(Op{Op: OpReplace, Elements: r.snapshot(els)})
	return nil
}

// Update implements surface.Renderer.
func (r *Remote) Update(id string, fn func(*surface.Data)) error {
	if err := r.Renderer.Update(id, fn); err != nil {
		return err
	}
	if el, ok := r.Renderer.Get(id); ok {
		d := el.Data
		r.send(Op{Op: OpUpdate, ID: id, Data: &d})
	}
	return nil
}

// SetPosition implements surface.Renderer. Node moves reach the client
// through the position event; other elements are sent directly.
func (r *Remote) SetPosition(id string, p surface.Point) error {
	if err := r.Renderer.SetPosition(id, p); err != nil {
		return err
	}
	if el, ok := r.Renderer.Get(id); ok && el.Kind != surface.KindNode {
		r.send(Op{Op: OpPosition, ID: id, Position: &p})
	}
	return nil
}

// SetViewport implements surface.Renderer.
func (r *Remote) SetViewport(v surface.Viewport) error {
	if err := r.Renderer.SetViewport(v); err != nil {
		return err
	}
	r.sendViewport()
	return nil
}

// Fit implements surface.Renderer.
func (r *Remote) Fit(ids []string, padding float64) error {
	if err := r.Renderer.Fit(ids, padding); err != nil {
		return err
	}
	r.sendViewport()
	return nil
}

// RunLayout implements surface.Renderer.
func (r *Remote) RunLayout(cfg layout.Config) error {
	if err := r.Renderer.RunLayout(cfg); err != nil {
		return err
	}
	r.send(Op{Op: OpLayout, Layout: cfg.Name})
	return nil
}

// Destroy implements surface.Renderer.
func (r *Remote) Destroy() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
	r.Renderer.Destroy()
}

// ClientResize records the client's container size.
func (r *Remote) ClientResize(s surface.Size) error {
	if s.Width <= 0 || s.Height <= 0 {
		r.Renderer.Detach()
		return nil
	}
	r.Renderer.Attach(s)
	return r.Renderer.Resize()
}

// ClientDrag applies a user drag. Locked elements and edges refuse it.
func (r *Remote) ClientDrag(id string, p surface.Point) bool {
	return r.Renderer.Drag(id, p)
}

// ClientViewport records a camera move made by the user.
func (r *Remote) ClientViewport(v surface.Viewport) error {
	return r.Renderer.SetViewport(v)
}

// ClientDetach records that the client unmounted its container.
func (r *Remote) ClientDetach() { r.Renderer.Detach() }

func (r *Remote) sendViewport() {
	v := r.Renderer.Viewport()
	r.send(Op{Op: OpViewport, Viewport: &v})
}

func (r *Remote) snapshot(els []surface.Element) []surface.Element {
	out := make([]surface.Element, 0, len(els))
	for _, el := range els {
		if cur, ok := r.Renderer.Get(el.ID); ok {
			out = append(out, cur)
		}
	}
	return out
}

var _ surface.Renderer = (*Remote)(nil)
