package cli

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archmap/pkg/config"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/surface"
	"github.com/matzehuels/archmap/pkg/surface/headless"
	"github.com/matzehuels/archmap/pkg/view"
)

// maxSettleTicks bounds how many frames settle runs before giving up on a
// surface that keeps scheduling work.
const maxSettleTicks = 16

// offscreen is a view session on a headless surface driven by a manual
// loop. Commands use it to lay out an analysis and read back nodes, halos
// and badges without a browser.
type offscreen struct {
	loop *surface.Loop
	r    *headless.Renderer
	sess *view.Session
}

func newOffscreen(cfg *config.Config, layoutName string, logger *log.Logger) *offscreen {
	if layoutName == "" {
		layoutName = cfg.View.Layout
	}
	loop := surface.NewLoop()
	r := headless.New(loop)
	sess := view.Open(r, loop, view.Options{
		Layout:  layoutName,
		Padding: float64(cfg.View.Padding),
		Colors:  cfg.Palette(),
		Logger:  logger,
	})
	return &offscreen{loop: loop, r: r, sess: sess}
}

// load replaces the analysis and runs the loop until the layout stopped and
// the halos caught up.
func (o *offscreen) load(a *graph.Analysis) error {
	if err := o.sess.Load(a); err != nil {
		return err
	}
	o.settle()
	return nil
}

// dismiss removes detection i and lets the halos reconcile.
func (o *offscreen) dismiss(i int) error {
	if err := o.sess.Dismiss(i); err != nil {
		return err
	}
	o.settle()
	return nil
}

func (o *offscreen) settle() {
	for range maxSettleTicks {
		o.loop.RunPending()
		o.loop.Tick()
		if turns, frames := o.loop.Pending(); turns == 0 && frames == 0 {
			return
		}
	}
}

// nodes returns the node elements sorted by ID.
func (o *offscreen) nodes() []surface.Element {
	return o.elements(surface.KindNode)
}

// halos returns the halo elements sorted by ID.
func (o *offscreen) halos() []surface.Element {
	return o.elements(surface.KindHalo)
}

func (o *offscreen) elements(kind surface.Kind) []surface.Element {
	ids := o.r.IDs(kind)
	slices.Sort(ids)
	out := make([]surface.Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := o.r.Get(id); ok {
			out = append(out, el)
		}
	}
	return out
}

// halo returns the halo drawn around node, if any.
func (o *offscreen) halo(node string) (surface.Element, bool) {
	return o.r.Get(overlay.HaloID(node))
}

func (o *offscreen) detections() []graph.Detection {
	return o.sess.Analysis().Detections
}

func (o *offscreen) haloStroke(node string) (float64, bool) {
	h, ok := o.halo(node)
	return h.Data.StrokeWidth, ok
}

func (o *offscreen) color(kind string) palette.Color {
	return o.sess.Colors().ColorFor(kind)
}

func (o *offscreen) close() {
	o.sess.Close()
	o.r.Destroy()
	o.loop.Close()
}
