package view

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/observability"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/surface"
)

// DefaultPadding is the fit padding used when Options.Padding is zero.
const DefaultPadding = 30

// Options configures a Session.
type Options struct {
	// Layout is the initial layout name. Unknown names select elk.
	Layout string
	// Padding is the viewport padding applied when fitting after a layout.
	Padding float64
	// Colors is the color registry. Nil gives the session its own.
	Colors *palette.Registry
	// Logger receives debug output. Nil uses log.Default().
	Logger *log.Logger
	// OnBadges receives every recomputed badge set.
	OnBadges func([]overlay.Badge)
}

// Session is one view of one surface. It is not safe for concurrent use;
// every method runs on the session's loop.
type Session struct {
	id      string
	sched   surface.Scheduler
	h       *surface.Handle
	colors  *palette.Registry
	logger  *log.Logger
	halos   *overlay.Halos
	badges  *overlay.Badges
	padding float64
	layout  string

	analysis *graph.Analysis
	elements *annotate.Elements
	closed   bool
}

// Open starts a session on r. The session subscribes to the renderer
// immediately; nothing is drawn until Load.
func Open(r surface.Renderer, sched surface.Scheduler, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	colors := opts.Colors
	if colors == nil {
		colors = palette.New()
	}
	padding := opts.Padding
	if padding == 0 {
		padding = DefaultPadding
	}

	id := uuid.NewString()
	logger = logger.With("session", id[:8])
	h := surface.Acquire(r, surface.WithLogger(logger))

	s := &Session{
		id:       id,
		sched:    sched,
		h:        h,
		colors:   colors,
		logger:   logger,
		padding:  padding,
		layout:   layout.ConfigFor(opts.Layout).Name,
		analysis: &graph.Analysis{},
		elements: &annotate.Elements{},
	}
	s.analysis.Normalize()

	s.halos = overlay.NewHalos(h, sched, colors, logger)
	s.halos.Attach()
	s.badges = overlay.NewBadges(h, sched, colors, logger, opts.OnBadges)
	s.badges.Attach()
	h.Subscribe(func(ev surface.Event) {
		if ev.Type == surface.LayoutStop {
			s.h.SafeFit(nil, s.padding)
		}
	})

	observability.Overlay().OnSessionOpen()
	logger.Debug("session opened", "layout", s.layout)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Handle returns the session's surface handle.
func (s *Session) Handle() *surface.Handle { return s.h }

// Colors returns the session's color registry.
func (s *Session) Colors() *palette.Registry { return s.colors }

// Layout returns the active layout name.
func (s *Session) Layout() string { return s.layout }

// Analysis returns the loaded analysis. It is empty before the first Load.
func (s *Session) Analysis() *graph.Analysis { return s.analysis }

// Elements returns the element model of the loaded analysis.
func (s *Session) Elements() *annotate.Elements { return s.elements }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// Load maps a and replaces the surface's element set with it, then starts a
// layout run. Halos for the new element set are created when the layout
// stops.
func (s *Session) Load(a *graph.Analysis) error {
	start := time.Now()
	els, err := annotate.Map(a, s.colors)
	if err != nil {
		return err
	}
	s.analysis = a
	s.elements = els

	if err := s.h.Replace(SurfaceElements(els)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "load elements")
	}
	if err := s.h.RunLayout(layout.ConfigFor(s.layout)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "run layout %s", s.layout)
	}

	observability.Overlay().OnAnalysisLoaded(len(els.Nodes), len(els.Edges), len(a.Detections), time.Since(start))
	s.logger.Debug("analysis loaded",
		"nodes", len(els.Nodes), "edges", len(els.Edges), "detections", len(a.Detections))
	return nil
}

// SetLayout switches the layout and re-runs it.
func (s *Session) SetLayout(name string) error {
	if !layout.Known(name) {
		return errors.New(errors.ErrCodeInvalidLayout, "unknown layout %q (valid: %v)", name, layout.Names())
	}
	s.layout = layout.ConfigFor(name).Name
	if err := s.h.RunLayout(layout.ConfigFor(s.layout)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "run layout %s", s.layout)
	}
	return nil
}

// Dismiss removes the detection at index i and pushes the changed
// annotations to the surface. Nodes whose annotations changed emit data
// events, so their halos are reconciled on the next turn. Against a
// detached, destroyed or released surface it fails with UNSUPPORTED and
// leaves the session unchanged.
func (s *Session) Dismiss(i int) error {
	if !s.h.Usable() {
		return errors.New(errors.ErrCodeUnsupported, "dismiss: surface is not usable")
	}
	if i < 0 || i >= len(s.analysis.Detections) {
		return errors.New(errors.ErrCodeInvalidInput, "detection index %d out of range [0, %d)", i, len(s.analysis.Detections))
	}
	next := s.analysis.WithoutDetection(i)
	els, err := annotate.Map(next, s.colors)
	if err != nil {
		return err
	}

	for _, el := range SurfaceElements(els) {
		cur, ok := s.h.Get(el.ID)
		if !ok || sameAnnotation(cur.Data, el.Data) {
			continue
		}
		if err := s.h.Update(el.ID, func(d *surface.Data) { applyAnnotation(d, el.Data) }); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "update %s", el.ID)
		}
	}

	s.analysis = next
	s.elements = els
	s.logger.Debug("detection dismissed", "index", i, "remaining", len(next.Detections))
	return nil
}

// SyncAll runs a full halo synchronization pass immediately.
func (s *Session) SyncAll() overlay.SyncResult { return s.halos.SyncAll() }

// Fit fits the viewport to the whole graph.
func (s *Session) Fit() { s.h.SafeFit(nil, s.padding) }

// Stats returns counters for the loaded analysis.
func (s *Session) Stats() annotate.Stats { return annotate.ComputeStats(s.analysis) }

// Badges returns the last computed badge chips.
func (s *Session) Badges() []overlay.Badge { return s.badges.Current() }

// Close cancels every deferred and per-frame task the session scheduled and
// releases the surface handle. The renderer itself is left to its owner.
// Close is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.halos.Close()
	s.badges.Close()
	s.h.Release()
	observability.Overlay().OnSessionClose()
	s.logger.Debug("session closed")
}
