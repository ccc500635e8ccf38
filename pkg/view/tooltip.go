package view

import (
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/surface"
)

// Tooltip is the hover card of a node.
type Tooltip struct {
	Node       string         `json:"node"`
	Label      string         `json:"label"`
	Kind       graph.NodeKind `json:"kind"`
	Severity   graph.Severity `json:"sev,omitempty"`
	Detections []string       `json:"detections,omitempty"`
	Position   surface.Point  `json:"position"`
}

// Tooltip builds the tooltip for hovering node. The card is anchored at the
// node's on-screen center and clamped into the container. It returns false
// if the node is unknown or the surface is gone.
func (s *Session) Tooltip(node string) (Tooltip, bool) {
	el, ok := s.h.Get(node)
	if !ok || el.Kind != surface.KindNode {
		return Tooltip{}, false
	}

	anchor := s.h.Viewport().ToScreen(el.Position)
	var container *surface.Size
	if size, ok := s.h.ContainerSize(); ok {
		container = &size
	}

	t := Tooltip{
		Node:     node,
		Label:    el.Data.Label,
		Kind:     el.Data.NodeKind,
		Severity: el.Data.Severity,
		Position: overlay.TooltipPosition(anchor.X, anchor.Y, container),
	}
	for _, d := range s.analysis.Detections {
		for _, id := range d.Nodes {
			if id == node {
				t.Detections = append(t.Detections, detectionLine(d))
				break
			}
		}
	}
	return t, true
}

func detectionLine(d graph.Detection) string {
	title := d.Title
	if title == "" {
		title = d.Kind
	}
	if d.Severity.Valid() {
		return string(d.Severity) + " " + title
	}
	return title
}
