// Package export writes an analysis in structural and visual formats.
//
// # Formats
//
//   - yaml: a services/dependencies document with fixed empty configs and
//     deployment sections, for tools that consume architecture manifests
//   - dot: Graphviz source of the annotated graph
//   - svg: the DOT source rendered in-process
//   - json: the mapped element model
//
// # Usage
//
//	data, err := export.YAML(analysis)
//
//	dot := export.ToDOT(elements, export.DOTOptions{Detailed: true})
//	svg, err := export.RenderSVG(ctx, dot)
//
// In the DOT output, flagged nodes carry a colored outline whose pen width
// follows the halo stroke width of their worst severity, and flagged edges
// take the color of their primary detection kind.
//
// # Dependencies
//
// SVG rendering uses [github.com/goccy/go-graphviz]; YAML uses
// [gopkg.in/yaml.v3].
package export
