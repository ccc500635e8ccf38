package export

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/overlay"
	"github.com/matzehuels/archmap/pkg/palette"
	"github.com/matzehuels/archmap/pkg/surface"
)

// DOTOptions configures DOT generation.
type DOTOptions struct {
	// Detailed adds the node kind, flags and attributes to node labels.
	// When false, only the display label is shown.
	Detailed bool
	// RankDir is the Graphviz rank direction. Empty means LR.
	RankDir string
}

var kindShapes = map[graph.NodeKind]string{
	graph.KindService:        "box",
	graph.KindDatabase:       "cylinder",
	graph.KindAPIGateway:     "hexagon",
	graph.KindEventTopic:     "parallelogram",
	graph.KindExternalSystem: "box3d",
	graph.KindClient:         "component",
	graph.KindUserActor:      "ellipse",
}

// ToDOT converts an element model to Graphviz DOT source.
func ToDOT(els *annotate.Elements, opts DOTOptions) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"" + string(palette.Neutral) + "\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for i := range els.Nodes {
		n := &els.Nodes[i]
		attrs := nodeAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i := range els.Edges {
		e := &els.Edges[i]
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *annotate.NodeElement, detailed bool) string {
	if !detailed {
		return n.Label
	}

	parts := []string{string(n.Kind)}
	if len(n.Flags) > 0 {
		parts = append(parts, "flags: "+strings.Join(n.Flags, ", "))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Attrs[k]))
	}
	return n.Label + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(n *annotate.NodeElement, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	styles := []string{"rounded", "filled"}
	if shape, ok := kindShapes[n.Kind]; ok && shape != "box" {
		attrs = append(attrs, "shape="+shape)
		styles = []string{"filled"}
	}
	if n.Flagged() {
		// Graphviz pen widths are in points; halo strokes are in pixels.
		pw := overlay.StrokeWidth(n.Severity) / 4
		attrs = append(attrs,
			fmt.Sprintf("color=%q", n.Color),
			"penwidth="+strconv.FormatFloat(pw, 'f', 2, 64),
		)
		if p := overlay.StrokePatternFor(n.Severity); p != surface.StrokeSolid {
			styles = append(styles, string(p))
		}
	}
	return append(attrs, fmt.Sprintf("style=%q", strings.Join(styles, ",")))
}

func edgeAttrs(e *annotate.EdgeElement) []string {
	attrs := []string{fmt.Sprintf("label=%q", strings.ToLower(string(e.Kind)))}
	if len(e.Flags) > 0 {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.Color), "penwidth=2")
	}
	if e.Kind == graph.EdgeReads {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
