package headless

import (
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/surface"
)

// RunLayout implements surface.Renderer. Placement happens on the next turn
// of the scheduler: layered configs rank nodes by longest incoming path,
// force-directed configs place them on a grid. Halos and locked nodes keep
// their positions. A run started while another is pending replaces it.
func (r *Renderer) RunLayout(cfg layout.Config) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.layoutCancel != nil {
		r.layoutCancel()
		r.layoutCancel = nil
	}
	r.layoutRuns++

	run := func() {
		r.layoutCancel = nil
		if r.destroyed {
			return
		}
		pos := r.place(cfg)
		for _, id := range slices.Sorted(maps.Keys(pos)) {
			r.els[id].Position = pos[id]
			r.emit(surface.Event{Type: surface.PositionChanged, Node: id})
		}
		if cfg.Fit {
			_ = r.Fit(nil, cfg.Padding)
		}
		r.requestFrame()
		r.emit(surface.Event{Type: surface.LayoutStop})
	}

	if r.sched == nil {
		run()
		return nil
	}
	r.layoutCancel = r.sched.Defer(run)
	return nil
}

// LayoutRuns returns the number of layout runs started.
func (r *Renderer) LayoutRuns() int { return r.layoutRuns }

func (r *Renderer) place(cfg layout.Config) map[string]surface.Point {
	var nodes []string
	maxW := 0.0
	for _, id := range r.IDs(surface.KindNode) {
		el := r.els[id]
		if el.Data.Locked {
			continue
		}
		nodes = append(nodes, id)
		maxW = math.Max(maxW, r.size(el).Width)
	}
	slices.Sort(nodes)
	if len(nodes) == 0 {
		return nil
	}
	if cfg.Layered() {
		return r.placeLayered(cfg, nodes, maxW)
	}
	return placeGrid(cfg, nodes, maxW)
}

func (r *Renderer) placeLayered(cfg layout.Config, nodes []string, maxW float64) map[string]surface.Point {
	rank := make(map[string]int, len(nodes))
	for _, id := range nodes {
		rank[id] = 0
	}

	// Longest-path ranking by relaxation. Ranks are capped so cycles
	// terminate.
	limit := len(nodes) - 1
	for range nodes {
		changed := false
		for _, id := range r.IDs(surface.KindEdge) {
			e := r.els[id]
			rs, sok := rank[e.Source]
			rt, tok := rank[e.Target]
			if !sok || !tok || e.Source == e.Target {
				continue
			}
			if rs+1 > rt && rs+1 <= limit {
				rank[e.Target] = rs + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	layers := map[int][]string{}
	for _, id := range nodes {
		layers[rank[id]] = append(layers[rank[id]], id)
	}

	along := maxW + cfg.RankSep
	across := NodeHeight + cfg.NodeSep
	if cfg.Direction == layout.TopToBottom {
		along, across = NodeHeight+cfg.RankSep, maxW+cfg.NodeSep
	}

	out := make(map[string]surface.Point, len(nodes))
	for rk, ids := range layers {
		for i, id := range ids {
			a, c := float64(rk)*along, float64(i)*across
			if cfg.Direction == layout.TopToBottom {
				out[id] = surface.Point{X: c, Y: a}
			} else {
				out[id] = surface.Point{X: a, Y: c}
			}
		}
	}
	return out
}

func placeGrid(cfg layout.Config, nodes []string, maxW float64) map[string]surface.Point {
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	step := math.Max(cfg.IdealEdgeLength, maxW+cfg.NodeSep)
	out := make(map[string]surface.Point, len(nodes))
	for i, id := range nodes {
		out[id] = surface.Point{X: float64(i%cols) * step, Y: float64(i/cols) * step}
	}
	return out
}
