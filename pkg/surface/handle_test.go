package surface_test

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archmap/pkg/layout"
	"github.com/matzehuels/archmap/pkg/surface"
	"github.com/matzehuels/archmap/pkg/surface/headless"
)

func quietHandle(r surface.Renderer) *surface.Handle {
	return surface.Acquire(r, surface.WithLogger(log.New(io.Discard)))
}

func node(id string) surface.Element {
	return surface.Element{ID: id, Kind: surface.KindNode, Data: surface.Data{Label: id}}
}

func TestHandleForwardsWhenUsable(t *testing.T) {
	loop := surface.NewLoop()
	r := headless.New(loop)
	h := quietHandle(r)

	require.True(t, h.Usable())
	require.NoError(t, h.Add(node("a"), node("b")))
	require.NoError(t, h.SetPosition("a", surface.Point{X: 10, Y: 20}))

	el, ok := h.Get("a")
	require.True(t, ok)
	assert.Equal(t, surface.Point{X: 10, Y: 20}, el.Position)
	assert.Equal(t, []string{"a", "b"}, h.IDs(surface.KindNode))

	box, err := h.BoundingBox("a")
	require.NoError(t, err)
	assert.Equal(t, surface.Point{X: 10, Y: 20}, box.Center())

	size, ok := h.ContainerSize()
	assert.True(t, ok)
	assert.Equal(t, headless.DefaultContainer, size)
}

func TestHandleGuardSafety(t *testing.T) {
	tests := []struct {
		name string
		kill func(r *headless.Renderer, h *surface.Handle)
	}{
		{"destroyed", func(r *headless.Renderer, _ *surface.Handle) { r.Destroy() }},
		{"detached", func(r *headless.Renderer, _ *surface.Handle) { r.Detach() }},
		{"released", func(_ *headless.Renderer, h *surface.Handle) { h.Release() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop := surface.NewLoop()
			r := headless.New(loop)
			h := quietHandle(r)
			require.NoError(t, h.Add(node("a")))
			before, _ := r.Get("a")

			tt.kill(r, h)
			require.False(t, h.Usable())

			assert.NotPanics(t, func() {
				assert.NoError(t, h.Add(node("b")))
				assert.NoError(t, h.Remove("a"))
				assert.NoError(t, h.Replace(nil))
				assert.NoError(t, h.Update("a", func(d *surface.Data) { d.Label = "changed" }))
				assert.NoError(t, h.SetPosition("a", surface.Point{X: 99}))
				assert.NoError(t, h.SetViewport(surface.Viewport{Zoom: 3}))
				assert.NoError(t, h.Resize())
				assert.NoError(t, h.Fit(nil, 10))
				assert.NoError(t, h.RunLayout(layout.ConfigFor("dagre")))
				h.SafeFit(nil, 30)

				box, err := h.BoundingBox("a")
				assert.NoError(t, err)
				assert.Equal(t, surface.Rect{}, box)
				_, ok := h.Get("a")
				assert.False(t, ok)
				assert.Empty(t, h.IDs(surface.KindNode))
				assert.Equal(t, 1.0, h.Viewport().Zoom)
				_, ok = h.ContainerSize()
				assert.False(t, ok)

				unsub := h.Subscribe(func(surface.Event) { t.Error("listener invoked") })
				unsub()
			})

			after, ok := r.Get("a")
			require.True(t, ok, "element must survive rejected operations")
			assert.Equal(t, before, after)
			assert.Equal(t, 0, r.LayoutRuns())
		})
	}
}

func TestHandleReleaseUnsubscribes(t *testing.T) {
	loop := surface.NewLoop()
	r := headless.New(loop)
	h := quietHandle(r)
	require.NoError(t, h.Add(node("a")))

	calls := 0
	h.Subscribe(func(surface.Event) { calls++ })
	h.Subscribe(func(surface.Event) { calls++ })
	assert.Equal(t, 2, r.Listeners())

	require.NoError(t, h.SetPosition("a", surface.Point{X: 1}))
	assert.Equal(t, 2, calls)

	h.Release()
	h.Release()
	assert.Equal(t, 0, r.Listeners())
	assert.True(t, h.Released())

	// The renderer itself is still alive and keeps emitting.
	require.NoError(t, r.SetPosition("a", surface.Point{X: 2}))
	assert.Equal(t, 2, calls)
}

type panickyRenderer struct {
	*headless.Renderer
}

func (panickyRenderer) BoundingBox(string) (surface.Rect, error) { panic("boom") }
func (panickyRenderer) Fit([]string, float64) error              { panic("fit exploded") }

func TestHandleRecoversRendererPanics(t *testing.T) {
	r := panickyRenderer{headless.New(nil)}
	h := quietHandle(r)

	var err error
	assert.NotPanics(t, func() { _, err = h.BoundingBox("a") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.NotPanics(t, func() { h.SafeFit(nil, 30) })
}

func TestHandleBoundingBoxPassesThroughRendererErrors(t *testing.T) {
	r := headless.New(nil)
	h := quietHandle(r)
	require.NoError(t, h.Add(node("a")))
	r.Unsettle("a")

	_, err := h.BoundingBox("a")
	assert.True(t, errors.Is(err, surface.ErrNotRendered))

	_, err = h.BoundingBox("missing")
	assert.True(t, errors.Is(err, surface.ErrUnknownElement))
}

func TestAcquireNil(t *testing.T) {
	h := quietHandle(nil)
	assert.False(t, h.Usable())
	assert.NotPanics(t, func() {
		assert.NoError(t, h.Add(node("a")))
		h.SafeFit(nil, 0)
	})
}
