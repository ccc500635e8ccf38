package overlay

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/archmap/pkg/observability"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/surface"
)

// Badge chip geometry in screen units.
const (
	BadgeSize   = 14
	BadgeGap    = 4
	BadgeOffset = 6
)

// Badge is a chip for one detection kind on one node. Position is the chip
// center in container coordinates.
type Badge struct {
	Node     string        `json:"node"`
	Kind     string        `json:"kind"`
	Index    int           `json:"index"`
	Color    palette.Color `json:"color"`
	Position surface.Point `json:"position"`
}

// PlaceBadges computes the chips of every flagged node with settled
// geometry. Chips of a node sit in a row centered under the node.
func PlaceBadges(h *surface.Handle, colors *palette.Registry) []Badge {
	if !h.Usable() {
		return nil
	}
	vp := h.Viewport()

	var out []Badge
	for _, id := range h.IDs(surface.KindNode) {
		el, ok := h.Get(id)
		if !ok || len(el.Data.Flags) == 0 {
			continue
		}
		box, err := h.BoundingBox(id)
		if err != nil {
			continue
		}
		anchor := vp.ToScreen(surface.Point{X: box.X + box.W/2, Y: box.Y + box.H})
		n := len(el.Data.Flags)
		row := float64(n*BadgeSize + (n-1)*BadgeGap)
		left := anchor.X - row/2 + BadgeSize/2.0
		for i, kind := range el.Data.Flags {
			out = append(out, Badge{
				Node:  id,
				Kind:  kind,
				Index: i,
				Color: colors.ColorFor(kind),
				Position: surface.Point{
					X: left + float64(i*(BadgeSize+BadgeGap)),
					Y: anchor.Y + BadgeOffset + BadgeSize/2.0,
				},
			})
		}
	}
	return out
}

// Badges keeps the badge chips of a surface current. Recomputation is
// requested by render, viewport, position and layout events and runs at
// most once per frame.
type Badges struct {
	h         *surface.Handle
	colors    *palette.Registry
	logger    *log.Logger
	coalescer *FrameCoalescer

	current  []Badge
	onUpdate func([]Badge)
	unsub    func()
}

// NewBadges returns a badge tracker. onUpdate, if non-nil, receives every
// recomputed set.
func NewBadges(h *surface.Handle, sched surface.Scheduler, colors *palette.Registry, logger *log.Logger, onUpdate func([]Badge)) *Badges {
	if logger == nil {
		logger = log.Default()
	}
	return &Badges{
		h:         h,
		colors:    colors,
		logger:    logger,
		coalescer: NewFrameCoalescer(sched),
		onUpdate:  onUpdate,
	}
}

// Attach subscribes to the events that move badges.
func (b *Badges) Attach() {
	if b.unsub != nil {
		return
	}
	b.unsub = b.h.Subscribe(func(ev surface.Event) {
		switch ev.Type {
		case surface.RenderFrame, surface.ViewportChanged, surface.PositionChanged, surface.LayoutStop:
			b.Request()
		}
	})
}

// Request asks for a recomputation on the next frame.
func (b *Badges) Request() {
	b.coalescer.Request(b.recompute)
}

func (b *Badges) recompute() {
	if !b.h.Usable() {
		return
	}
	b.current = PlaceBadges(b.h, b.colors)
	observability.Overlay().OnBadgeRecompute(len(b.current))
	if b.onUpdate != nil {
		b.onUpdate(b.current)
	}
}

// Current returns the chips of the last recomputation.
func (b *Badges) Current() []Badge { return b.current }

// Recomputes returns how many recomputations have run.
func (b *Badges) Recomputes() int { return b.coalescer.Runs() }

// Pending reports whether a recomputation is scheduled.
func (b *Badges) Pending() bool { return b.coalescer.Pending() }

// Close cancels any scheduled recomputation and unsubscribes.
func (b *Badges) Close() {
	b.coalescer.Cancel()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}
