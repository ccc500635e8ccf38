package surface

import (
	"errors"
	"math"

	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/palette"
)

// Sentinel errors returned by renderers.
var (
	// ErrNotRendered is returned by geometry queries against an element whose
	// rendering frame has not settled yet. Callers retry on a later pass.
	ErrNotRendered = errors.New("surface: element not rendered")

	// ErrUnknownElement is returned when an operation names an element that
	// is not part of the element set.
	ErrUnknownElement = errors.New("surface: unknown element")
)

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in model coordinates unless stated otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned box given by its top-left corner and size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectAround returns the rect of size s centered on p.
func RectAround(p Point, s Size) Rect {
	return Rect{X: p.X - s.Width/2, Y: p.Y - s.Height/2, W: s.Width, H: s.Height}
}

// Center returns the center point of r.
func (r Rect) Center() Point { return Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Size returns the width and height of r.
func (r Rect) Size() Size { return Size{Width: r.W, Height: r.H} }

// Union returns the smallest rect containing both r and o. An empty r is
// treated as absent.
func (r Rect) Union(o Rect) Rect {
	if r.W == 0 && r.H == 0 {
		return o
	}
	x1, y1 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x2, y2 := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Viewport is the camera: screen = model*Zoom + Pan.
type Viewport struct {
	Pan  Point   `json:"pan"`
	Zoom float64 `json:"zoom"`
}

// ToScreen converts a model position into container coordinates.
func (v Viewport) ToScreen(p Point) Point {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return Point{X: p.X*z + v.Pan.X, Y: p.Y*z + v.Pan.Y}
}

// =============================================================================
// Elements
// =============================================================================

// Kind is the element class.
type Kind string

// Element kinds.
const (
	KindNode Kind = "node"
	KindEdge Kind = "edge"
	KindHalo Kind = "halo"
)

// StrokePattern is the dash style of a halo outline.
type StrokePattern string

// Stroke patterns.
const (
	StrokeSolid  StrokePattern = "solid"
	StrokeDashed StrokePattern = "dashed"
	StrokeDotted StrokePattern = "dotted"
)

// Data is the element payload. Fields not meaningful for an element's kind
// stay zero.
type Data struct {
	Label    string         `json:"label,omitempty"`
	NodeKind graph.NodeKind `json:"node_kind,omitempty"`
	EdgeKind graph.EdgeKind `json:"edge_kind,omitempty"`
	Index    int            `json:"index,omitempty"`

	Flags    []string        `json:"flags,omitempty"`
	Severity graph.Severity  `json:"sev,omitempty"`
	Color    palette.Color   `json:"color,omitempty"`
	Colors   []palette.Color `json:"colors,omitempty"`

	// Halo fields. Width and Height override a node's intrinsic size.
	HaloFor       string        `json:"halo_for,omitempty"`
	Width         float64       `json:"width,omitempty"`
	Height        float64       `json:"height,omitempty"`
	StrokeWidth   float64       `json:"stroke_width,omitempty"`
	StrokeColor   palette.Color `json:"stroke_color,omitempty"`
	StrokePattern StrokePattern `json:"stroke_pattern,omitempty"`

	// Locked elements cannot be dragged and are ignored by layouts.
	Locked bool `json:"locked,omitempty"`
}

// Element is one member of the rendering surface's element set.
type Element struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Source   string `json:"source,omitempty"`
	Target   string `json:"target,omitempty"`
	Position Point  `json:"position"`
	Data     Data   `json:"data"`
}

// =============================================================================
// Events
// =============================================================================

// EventType enumerates the renderer events the overlay engine reacts to.
type EventType int

// Renderer events.
const (
	// LayoutStop fires once a layout run has positioned every node.
	LayoutStop EventType = iota + 1
	// PositionChanged fires when a single node moves (drag, programmatic).
	PositionChanged
	// DataChanged fires when a node's data payload is mutated.
	DataChanged
	// RenderFrame fires after the renderer draws a frame.
	RenderFrame
	// ViewportChanged fires on pan or zoom.
	ViewportChanged
)

var eventNames = map[EventType]string{
	LayoutStop:      "layoutstop",
	PositionChanged: "position",
	DataChanged:     "data",
	RenderFrame:     "render",
	ViewportChanged: "viewport",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseEventType returns the event type named s.
func ParseEventType(s string) (EventType, bool) {
	for t, name := range eventNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Event is a renderer notification. Node is set for PositionChanged and
// DataChanged.
type Event struct {
	Type EventType
	Node string
}

// Listener receives renderer events. Listeners run synchronously on the
// renderer's loop, in emission order.
type Listener func(Event)

// =============================================================================
// Renderer
// =============================================================================

// Renderer is the rendering surface as seen by the overlay engine.
type Renderer interface {
	// Destroyed reports whether the renderer has been torn down.
	Destroyed() bool
	// Attached reports whether the renderer is mounted in a live container.
	Attached() bool
	// ContainerSize returns the container dimensions, false if unknown.
	ContainerSize() (Size, bool)

	// Add inserts elements. Existing IDs are replaced.
	Add(els ...Element) error
	// Remove deletes elements. Unknown IDs are ignored.
	Remove(ids ...string) error
	// Replace swaps the whole element set.
	Replace(els []Element) error
	// Get returns a copy of the element.
	Get(id string) (Element, bool)
	// IDs returns the IDs of all elements of kind in insertion order.
	IDs(kind Kind) []string
	// Update mutates an element's data. Updating a node emits DataChanged.
	Update(id string, fn func(*Data)) error
	// SetPosition moves an element. Moving a node emits PositionChanged.
	SetPosition(id string, p Point) error

	// BoundingBox returns the rendered box of an element in model
	// coordinates, or ErrNotRendered while its frame is unsettled.
	BoundingBox(id string) (Rect, error)
	// Viewport returns the current camera.
	Viewport() Viewport
	// SetViewport moves the camera and emits ViewportChanged.
	SetViewport(v Viewport) error
	// Resize re-reads the container dimensions.
	Resize() error
	// Fit adjusts the camera so the given elements (all when empty) are
	// visible with padding screen units around them.
	Fit(ids []string, padding float64) error

	// RunLayout starts an asynchronous layout run that emits LayoutStop
	// once nodes are in place. Locked elements and halos are ignored.
	RunLayout(cfg layout.Config) error

	// Subscribe registers a listener and returns its unsubscribe func.
	Subscribe(fn Listener) (unsubscribe func())

	// Destroy tears the renderer down. Further calls must not panic.
	Destroy()
}

// IsUsable reports whether r is non-nil, not destroyed and attached to a
// container.
func IsUsable(r Renderer) bool {
	return r != nil && !r.Destroyed() && r.Attached()
}

// Scheduler defers work onto an event loop. Both methods return a cancel
// func that discards the work if it has not run yet.
type Scheduler interface {
	// Defer runs fn after the current turn completes.
	Defer(fn func()) (cancel func())
	// NextFrame runs fn on the next display tick.
	NextFrame(fn func()) (cancel func())
}
