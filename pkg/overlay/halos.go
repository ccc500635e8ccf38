package overlay

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archmap/pkg/observability"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/surface"
)

// SyncResult counts what a full synchronization pass did.
type SyncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeSynced
	outcomeRemoved
	outcomeSkipped
)

// Removal reasons reported to hooks and logs.
const (
	reasonNodeGone  = "node_removed"
	reasonUnflagged = "unflagged"
)

// Halos owns the halo elements of one surface. It must only be used from
// the loop behind its scheduler.
type Halos struct {
	h      *surface.Handle
	sched  surface.Scheduler
	colors *palette.Registry
	logger *log.Logger

	pending map[string]func()
	stale   map[string]bool
	unsub   func()
}

// NewHalos returns a halo decorator for the surface behind h. Call Attach
// to start reacting to surface events.
func NewHalos(h *surface.Handle, sched surface.Scheduler, colors *palette.Registry, logger *log.Logger) *Halos {
	if logger == nil {
		logger = log.Default()
	}
	return &Halos{
		h:       h,
		sched:   sched,
		colors:  colors,
		logger:  logger,
		pending: make(map[string]func()),
		stale:   make(map[string]bool),
	}
}

// Attach subscribes to layout, position, data and frame events. Attaching
// twice is a no-op.
func (hs *Halos) Attach() {
	if hs.unsub != nil {
		return
	}
	hs.unsub = hs.h.Subscribe(hs.handle)
}

func (hs *Halos) handle(ev surface.Event) {
	switch ev.Type {
	case surface.LayoutStop:
		hs.SyncAll()
	case surface.PositionChanged:
		hs.Sync(ev.Node)
	case surface.DataChanged:
		hs.scheduleReconcile(ev.Node)
	case surface.RenderFrame:
		hs.retryStale()
	}
}

// retryStale reconciles the nodes whose last sync was skipped because their
// geometry was not rendered yet.
func (hs *Halos) retryStale() {
	if len(hs.stale) == 0 {
		return
	}
	nodes := make([]string, 0, len(hs.stale))
	for node := range hs.stale {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	clear(hs.stale)
	for _, node := range nodes {
		hs.Reconcile(node)
	}
}

// scheduleReconcile defers reconciliation of a node to the next turn. A
// request for a node that already has one pending is absorbed.
func (hs *Halos) scheduleReconcile(node string) {
	if _, ok := hs.pending[node]; ok || node == "" {
		return
	}
	hs.pending[node] = hs.sched.Defer(func() {
		delete(hs.pending, node)
		hs.Reconcile(node)
	})
}

// Pending returns the number of deferred node reconciliations.
func (hs *Halos) Pending() int { return len(hs.pending) }

// Stale returns the number of nodes waiting for a rendered frame before
// their halo can be synchronized.
func (hs *Halos) Stale() int { return len(hs.stale) }

// Reconcile creates the node's halo if the node is flagged and has none,
// then synchronizes it.
func (hs *Halos) Reconcile(node string) {
	if !hs.h.Usable() {
		return
	}
	hs.ensure(node)
	hs.Sync(node)
}

// Sync brings the halo of node in line with the node. Without a halo it
// does nothing. The halo is deleted if the node is gone or no longer
// flagged, and left untouched if the node's geometry is not rendered yet.
func (hs *Halos) Sync(node string) {
	if !hs.h.Usable() {
		return
	}
	haloID := HaloID(node)
	if !hs.h.Has(haloID) {
		return
	}
	hs.syncHalo(haloID, node)
}

// SyncAll creates halos for flagged nodes that lack one, then synchronizes
// every halo element against the node its back-reference names.
func (hs *Halos) SyncAll() SyncResult {
	var res SyncResult
	if !hs.h.Usable() {
		return res
	}
	start := time.Now()

	for _, id := range hs.h.IDs(surface.KindNode) {
		switch hs.ensure(id) {
		case outcomeSynced:
			res.Created++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	for _, haloID := range hs.h.IDs(surface.KindHalo) {
		el, ok := hs.h.Get(haloID)
		if !ok {
			continue
		}
		target := el.Data.HaloFor
		if target == "" && IsHaloID(haloID) {
			target = haloID[len(HaloPrefix):]
		}
		switch hs.syncHalo(haloID, target) {
		case outcomeSynced:
			res.Synced++
		case outcomeRemoved:
			res.Removed++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	hs.logger.Debug("halo sync pass",
		"synced", res.Synced, "created", res.Created,
		"removed", res.Removed, "skipped", res.Skipped)
	observability.Overlay().OnSyncPass(res.Synced, res.Created, res.Removed, res.Skipped, time.Since(start))
	return res
}

// ensure adds a locked halo for a flagged node lacking one. The halo is only
// added once the node's geometry is rendered; until then the node is marked
// stale and outcomeSkipped is returned.
func (hs *Halos) ensure(node string) outcome {
	el, ok := hs.h.Get(node)
	if !ok || el.Kind != surface.KindNode || len(el.Data.Flags) == 0 {
		return outcomeNone
	}
	haloID := HaloID(node)
	if hs.h.Has(haloID) {
		return outcomeNone
	}
	if _, err := hs.h.BoundingBox(node); err != nil {
		hs.logger.Debug("halo creation deferred", "node", node, "err", err)
		hs.stale[node] = true
		return outcomeSkipped
	}
	err := hs.h.Add(surface.Element{
		ID:       haloID,
		Kind:     surface.KindHalo,
		Position: el.Position,
		Data:     surface.Data{HaloFor: node, Locked: true},
	})
	if err != nil || !hs.h.Has(haloID) {
		return outcomeNone
	}
	hs.logger.Debug("halo created", "node", node)
	observability.Overlay().OnHaloCreated(node)
	return outcomeSynced
}

func (hs *Halos) syncHalo(haloID, node string) outcome {
	el, ok := hs.h.Get(node)
	if !ok || el.Kind != surface.KindNode {
		delete(hs.stale, node)
		return hs.remove(haloID, node, reasonNodeGone)
	}
	if len(el.Data.Flags) == 0 {
		delete(hs.stale, node)
		return hs.remove(haloID, node, reasonUnflagged)
	}

	box, err := hs.h.BoundingBox(node)
	if err != nil {
		hs.logger.Debug("halo skipped", "node", node, "err", err)
		hs.stale[node] = true
		return outcomeSkipped
	}

	sev := el.Data.Severity
	sw := StrokeWidth(sev)
	size := HaloSize(box, sw)
	color := hs.colors.ColorFor(el.Data.Flags[0])

	err = hs.h.Update(haloID, func(d *surface.Data) {
		d.HaloFor = node
		d.Severity = sev
		d.StrokeWidth = sw
		d.StrokePattern = StrokePatternFor(sev)
		d.StrokeColor = color
		d.Width = size.Width
		d.Height = size.Height
		d.Locked = true
	})
	if err == nil {
		err = hs.h.SetPosition(haloID, el.Position)
	}
	if err != nil {
		hs.logger.Debug("halo update failed", "node", node, "err", err)
		return outcomeSkipped
	}
	delete(hs.stale, node)
	return outcomeSynced
}

func (hs *Halos) remove(haloID, node, reason string) outcome {
	if err := hs.h.Remove(haloID); err != nil {
		hs.logger.Debug("halo removal failed", "node", node, "err", err)
		return outcomeSkipped
	}
	hs.logger.Debug("halo removed", "node", node, "reason", reason)
	observability.Overlay().OnHaloRemoved(node, reason)
	return outcomeRemoved
}

// Close cancels deferred reconciliations and unsubscribes from the
// surface. The halo elements themselves are left in place.
func (hs *Halos) Close() {
	for node, cancel := range hs.pending {
		cancel()
		delete(hs.pending, node)
	}
	clear(hs.stale)
	if hs.unsub != nil {
		hs.unsub()
		hs.unsub = nil
	}
}
