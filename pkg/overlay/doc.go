// Package overlay keeps visual decorations in step with a live rendering
// surface.
//
// [Halos] maintains one halo element per flagged node. A halo rings its
// node with a stroke whose width and dash pattern encode the node's worst
// severity and whose color is that of the node's primary detection kind.
// Halo geometry is always derived from the node's current rendered box:
//
//	halo size = node size + (strokeWidth + 12) on each axis
//	halo position = node position
//
// Halos react to surface events: a finished layout resynchronizes every
// halo, a node move resynchronizes that node's halo immediately, and a data
// change is reconciled on the next loop turn so that a position change
// carried by the same update settles first. Geometry that is not rendered
// yet is skipped and picked up by a later pass.
//
// [Badges] places one chip per (node, detection kind) under each node in
// screen space and recomputes at most once per frame through a
// [FrameCoalescer].
//
// [TooltipPosition] clamps a hover tooltip into its container.
package overlay
