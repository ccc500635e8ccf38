package overlay

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/surface"
	"github.com/matzehuels/archmap/pkg/surface/headless"
)

// fixture is a headless surface with a loop, handle and registry.
type fixture struct {
	loop   *surface.Loop
	r      *headless.Renderer
	h      *surface.Handle
	colors *palette.Registry
	logger *log.Logger
}

func newFixture() *fixture {
	loop := surface.NewLoop()
	r := headless.New(loop)
	logger := log.New(io.Discard)
	return &fixture{
		loop:   loop,
		r:      r,
		h:      surface.Acquire(r, surface.WithLogger(logger)),
		colors: palette.New(),
		logger: logger,
	}
}

func (f *fixture) addNode(id string, pos surface.Point, sev graph.Severity, flags ...string) {
	_ = f.r.Add(surface.Element{
		ID:       id,
		Kind:     surface.KindNode,
		Position: pos,
		Data:     surface.Data{Label: id, Flags: flags, Severity: sev},
	})
}

func (f *fixture) halos() *Halos {
	hs := NewHalos(f.h, f.loop, f.colors, f.logger)
	hs.Attach()
	return hs
}
