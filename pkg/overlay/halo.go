package overlay

import (
	"strings"

	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/surface"
)

// HaloPrefix prefixes the element ID of every halo.
const HaloPrefix = "halo-"

// HaloPadding is added to the stroke width to get the per-axis growth of a
// halo over its node.
const HaloPadding = 12

// Stroke widths per severity.
const (
	StrokeHigh    = 12
	StrokeMedium  = 10
	StrokeLow     = 9
	StrokeDefault = 9
)

// HaloID returns the halo element ID for a node.
func HaloID(node string) string { return HaloPrefix + node }

// IsHaloID reports whether id names a halo element.
func IsHaloID(id string) bool { return strings.HasPrefix(id, HaloPrefix) }

// StrokeWidth returns the halo stroke width for a node's worst severity.
func StrokeWidth(sev graph.Severity) float64 {
	switch sev {
	case graph.SeverityHigh:
		return StrokeHigh
	case graph.SeverityMedium:
		return StrokeMedium
	case graph.SeverityLow:
		return StrokeLow
	default:
		return StrokeDefault
	}
}

// StrokePatternFor returns the halo dash pattern for a severity.
func StrokePatternFor(sev graph.Severity) surface.StrokePattern {
	switch sev {
	case graph.SeverityHigh:
		return surface.StrokeSolid
	case graph.SeverityMedium:
		return surface.StrokeDashed
	default:
		return surface.StrokeDotted
	}
}

// HaloSize returns the halo size around a node box for stroke width sw.
func HaloSize(node surface.Rect, sw float64) surface.Size {
	grow := sw + HaloPadding
	return surface.Size{Width: node.W + grow, Height: node.H + grow}
}
