// Package annotate turns an analysis into the element model a rendering
// surface displays.
//
// [Map] emits one [NodeElement] per node and one [EdgeElement] per edge and
// folds every detection over its node and edge membership to derive, per
// element, the detection kinds that implicate it (Flags) and the worst
// severity among them. Colors come from an injected [palette.Registry].
//
// Map is pure apart from registry lookups: mapping the same analysis twice
// with the same registry yields identical element models.
//
// [ComputeStats] derives the aggregate counters shown next to the graph.
package annotate
