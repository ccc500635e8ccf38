package overlay

import "github.com/matzehuels/archmap/pkg/surface"

// Tooltip footprint and placement constants, in screen units.
const (
	TooltipOffset = 12
	TooltipMargin = 8
	TooltipWidth  = 280
	TooltipHeight = 180
)

// TooltipPosition places a tooltip for a hover target at (x, y) inside the
// container. A nil container is treated as 0x0, which pins the tooltip to
// the margin. When the container is too small for the tooltip the margin
// wins.
func TooltipPosition(x, y float64, container *surface.Size) surface.Point {
	var w, h float64
	if container != nil {
		w, h = container.Width, container.Height
	}
	return surface.Point{
		X: clamp(x+TooltipOffset, TooltipMargin, w-TooltipWidth),
		Y: clamp(y+TooltipOffset, TooltipMargin, h-TooltipHeight),
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
