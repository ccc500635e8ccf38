package headless

import (
	"errors"
	"testing"

	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/surface"
)

func nodeEl(id, label string) surface.Element {
	return surface.Element{ID: id, Kind: surface.KindNode, Data: surface.Data{Label: label}}
}

func edgeEl(id, from, to string) surface.Element {
	return surface.Element{ID: id, Kind: surface.KindEdge, Source: from, Target: to}
}

type recorder struct {
	events []surface.Event
}

func (rec *recorder) listen(ev surface.Event) { rec.events = append(rec.events, ev) }

func (rec *recorder) count(t surface.EventType) int {
	n := 0
	for _, ev := range rec.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func TestNodeSize(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"", MinNodeWidth},
		{"db", MinNodeWidth},
		{"orders-service", 8*14 + 24},
	}
	for _, tt := range tests {
		if got := NodeSize(tt.label); got.Width != tt.want || got.Height != NodeHeight {
			t.Errorf("NodeSize(%q) = %+v, want width %v", tt.label, got, tt.want)
		}
	}
}

func TestBoundingBox(t *testing.T) {
	r := New(nil)
	_ = r.Add(nodeEl("a", "a"), nodeEl("b", "b"), edgeEl("e0", "a", "b"))
	_ = r.SetPosition("a", surface.Point{X: 100, Y: 100})
	_ = r.SetPosition("b", surface.Point{X: 300, Y: 200})

	box, err := r.BoundingBox("a")
	if err != nil {
		t.Fatal(err)
	}
	if box != (surface.Rect{X: 60, Y: 80, W: 80, H: 40}) {
		t.Errorf("node box = %+v", box)
	}

	ebox, err := r.BoundingBox("e0")
	if err != nil {
		t.Fatal(err)
	}
	if ebox != (surface.Rect{X: 100, Y: 100, W: 200, H: 100}) {
		t.Errorf("edge box = %+v", ebox)
	}

	_ = r.Update("a", func(d *surface.Data) { d.Width, d.Height = 10, 12 })
	box, _ = r.BoundingBox("a")
	if box.W != 10 || box.H != 12 {
		t.Errorf("explicit size ignored: %+v", box)
	}

	if _, err := r.BoundingBox("zzz"); !errors.Is(err, surface.ErrUnknownElement) {
		t.Errorf("unknown element err = %v", err)
	}
}

func TestUnsettleUntilFrame(t *testing.T) {
	loop := surface.NewLoop()
	r := New(loop)
	_ = r.Add(nodeEl("a", "a"))
	r.Unsettle("a")

	if _, err := r.BoundingBox("a"); !errors.Is(err, surface.ErrNotRendered) {
		t.Fatalf("err = %v, want ErrNotRendered", err)
	}
	loop.Tick()
	if _, err := r.BoundingBox("a"); err != nil {
		t.Errorf("after frame err = %v", err)
	}
	if r.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", r.Frames())
	}
}

func TestEvents(t *testing.T) {
	loop := surface.NewLoop()
	r := New(loop)
	rec := &recorder{}
	unsub := r.Subscribe(rec.listen)

	_ = r.Add(nodeEl("a", "a"), surface.Element{ID: "halo-a", Kind: surface.KindHalo})
	_ = r.Update("a", func(d *surface.Data) { d.Flags = []string{"cycles"} })
	_ = r.Update("halo-a", func(d *surface.Data) { d.StrokeWidth = 12 })
	_ = r.SetPosition("a", surface.Point{X: 5})
	_ = r.SetPosition("halo-a", surface.Point{X: 5})
	_ = r.SetViewport(surface.Viewport{Zoom: 2})

	if got := rec.count(surface.DataChanged); got != 1 {
		t.Errorf("DataChanged = %d, want 1 (halos do not emit)", got)
	}
	if got := rec.count(surface.PositionChanged); got != 1 {
		t.Errorf("PositionChanged = %d, want 1 (halos do not emit)", got)
	}
	if got := rec.count(surface.ViewportChanged); got != 1 {
		t.Errorf("ViewportChanged = %d, want 1", got)
	}

	loop.Tick()
	loop.Tick()
	if got := rec.count(surface.RenderFrame); got != 1 {
		t.Errorf("RenderFrame = %d, want 1 (frames are coalesced)", got)
	}

	unsub()
	_ = r.SetPosition("a", surface.Point{X: 6})
	if got := rec.count(surface.PositionChanged); got != 1 {
		t.Error("unsubscribed listener still receives events")
	}
}

func TestRemoveNodeDropsEdges(t *testing.T) {
	r := New(nil)
	_ = r.Add(nodeEl("a", "a"), nodeEl("b", "b"), edgeEl("e0", "a", "b"),
		surface.Element{ID: "halo-a", Kind: surface.KindHalo, Data: surface.Data{HaloFor: "a"}})
	_ = r.Remove("a", "missing")

	if _, ok := r.Get("e0"); ok {
		t.Error("edge attached to removed node should be removed")
	}
	if _, ok := r.Get("halo-a"); !ok {
		t.Error("halos are not removed with their node")
	}
	if ids := r.IDs(surface.KindNode); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("nodes = %v", ids)
	}
}

func TestDragRespectsLock(t *testing.T) {
	r := New(nil)
	_ = r.Add(nodeEl("a", "a"), surface.Element{ID: "h", Kind: surface.KindHalo, Data: surface.Data{Locked: true}})

	if r.Drag("h", surface.Point{X: 50}) {
		t.Error("locked halo moved")
	}
	if !r.Drag("a", surface.Point{X: 50}) {
		t.Error("node did not move")
	}
	if el, _ := r.Get("a"); el.Position.X != 50 {
		t.Errorf("position = %+v", el.Position)
	}
}

func TestRunLayoutLayered(t *testing.T) {
	loop := surface.NewLoop()
	r := New(loop)
	rec := &recorder{}
	r.Subscribe(rec.listen)

	_ = r.Add(nodeEl("gw", "gw"), nodeEl("svc", "svc"), nodeEl("db", "db"),
		edgeEl("e0", "gw", "svc"), edgeEl("e1", "svc", "db"), edgeEl("e2", "db", "gw"),
		surface.Element{ID: "halo-svc", Kind: surface.KindHalo, Position: surface.Point{X: -7, Y: -7}})

	cfg := layout.ConfigFor(layout.Dagre)
	cfg.Fit = false
	if err := r.RunLayout(cfg); err != nil {
		t.Fatal(err)
	}
	if rec.count(surface.LayoutStop) != 0 {
		t.Fatal("layout must complete asynchronously")
	}
	loop.RunPending()

	if rec.count(surface.LayoutStop) != 1 {
		t.Fatalf("LayoutStop = %d, want 1", rec.count(surface.LayoutStop))
	}
	last := rec.events[len(rec.events)-1]
	if last.Type != surface.LayoutStop {
		t.Errorf("LayoutStop must follow every position event, last = %v", last.Type)
	}

	gw, _ := r.Get("gw")
	svc, _ := r.Get("svc")
	db, _ := r.Get("db")
	if !(gw.Position.X < svc.Position.X && svc.Position.X < db.Position.X) {
		t.Errorf("left-to-right ranks not increasing: gw=%v svc=%v db=%v", gw.Position, svc.Position, db.Position)
	}
	if halo, _ := r.Get("halo-svc"); halo.Position != (surface.Point{X: -7, Y: -7}) {
		t.Error("layout moved a halo")
	}
}

func TestRunLayoutRestartCancelsPending(t *testing.T) {
	loop := surface.NewLoop()
	r := New(loop)
	rec := &recorder{}
	r.Subscribe(rec.listen)
	_ = r.Add(nodeEl("a", "a"))

	_ = r.RunLayout(layout.ConfigFor(layout.Cola))
	_ = r.RunLayout(layout.ConfigFor(layout.ELK))
	loop.RunPending()

	if got := rec.count(surface.LayoutStop); got != 1 {
		t.Errorf("LayoutStop = %d, want 1", got)
	}
	if r.LayoutRuns() != 2 {
		t.Errorf("LayoutRuns() = %d, want 2", r.LayoutRuns())
	}
}

func TestFit(t *testing.T) {
	r := New(nil, WithContainer(surface.Size{Width: 1000, Height: 500}))
	_ = r.Add(nodeEl("a", "a"), nodeEl("b", "b"))
	_ = r.SetPosition("a", surface.Point{X: 0, Y: 0})
	_ = r.SetPosition("b", surface.Point{X: 400, Y: 0})

	if err := r.Fit(nil, 50); err != nil {
		t.Fatal(err)
	}
	v := r.Viewport()
	center := v.ToScreen(surface.Point{X: 200, Y: 0})
	if center.X != 500 || center.Y != 250 {
		t.Errorf("fitted center on screen = %+v, want (500, 250)", center)
	}
	if v.Zoom <= 0 || v.Zoom > 4 {
		t.Errorf("zoom = %v", v.Zoom)
	}
}

func TestDestroy(t *testing.T) {
	loop := surface.NewLoop()
	r := New(loop)
	rec := &recorder{}
	r.Subscribe(rec.listen)
	_ = r.Add(nodeEl("a", "a"))
	_ = r.RunLayout(layout.ConfigFor(layout.Dagre))

	r.Destroy()
	r.Destroy()
	loop.RunPending()
	loop.Tick()

	if len(rec.events) != 0 {
		t.Errorf("events after destroy: %v", rec.events)
	}
	if !r.Destroyed() {
		t.Error("Destroyed() = false")
	}
	if err := r.Add(nodeEl("b", "b")); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Add after destroy = %v", err)
	}
	if r.Listeners() != 0 {
		t.Error("listeners survive destroy")
	}
}

func TestDetached(t *testing.T) {
	r := New(nil, Detached())
	if r.Attached() {
		t.Error("Detached() renderer is attached")
	}
	if _, ok := r.ContainerSize(); ok {
		t.Error("detached renderer reports a container")
	}
	r.Attach(surface.Size{Width: 10, Height: 10})
	if s, ok := r.ContainerSize(); !ok || s.Width != 10 {
		t.Errorf("ContainerSize after Attach = %+v, %v", s, ok)
	}
}
