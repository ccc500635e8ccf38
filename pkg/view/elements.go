package view

import (
	"slices"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/surface"
)

// SurfaceElements converts an element model into surface elements, nodes
// first.
func SurfaceElements(els *annotate.Elements) []surface.Element {
	out := make([]surface.Element, 0, len(els.Nodes)+len(els.Edges))
	for i := range els.Nodes {
		out = append(out, surface.Element{
			ID:   els.Nodes[i].ID,
			Kind: surface.KindNode,
			Data: nodeData(&els.Nodes[i]),
		})
	}
	for i := range els.Edges {
		e := &els.Edges[i]
		out = append(out, surface.Element{
			ID:     e.ID,
			Kind:   surface.KindEdge,
			Source: e.Source,
			Target: e.Target,
			Data:   edgeData(e),
		})
	}
	return out
}

func nodeData(n *annotate.NodeElement) surface.Data {
	return surface.Data{
		Label:    n.Label,
		NodeKind: n.Kind,
		Flags:    slices.Clone(n.Flags),
		Severity: n.Severity,
		Color:    n.Color,
		Colors:   slices.Clone(n.Colors),
	}
}

func edgeData(e *annotate.EdgeElement) surface.Data {
	return surface.Data{
		EdgeKind: e.Kind,
		Index:    e.Index,
		Flags:    slices.Clone(e.Flags),
		Severity: e.Severity,
		Color:    e.Color,
	}
}

// applyAnnotation copies detection metadata onto existing data, keeping
// geometry and halo fields.
func applyAnnotation(d *surface.Data, next surface.Data) {
	d.Flags = next.Flags
	d.Severity = next.Severity
	d.Color = next.Color
	d.Colors = next.Colors
}

func sameAnnotation(a, b surface.Data) bool {
	return slices.Equal(a.Flags, b.Flags) &&
		a.Severity == b.Severity &&
		a.Color == b.Color &&
		slices.Equal(a.Colors, b.Colors)
}
