package annotate

import (
	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/palette"
)

// Annotations is the per-element state derived from folding detections over
// their node and edge memberships.
type Annotations struct {
	// NodeKinds lists, per node, the kinds of every detection implicating it
	// in detection order. A node implicated twice by the same kind appears
	// twice (one badge per detection).
	NodeKinds map[string][]string
	// NodeSeverity is the worst severity per node. Absent if none.
	NodeSeverity map[string]graph.Severity
	// EdgeFlags lists, per edge index, the implicating detection kinds.
	EdgeFlags map[int][]string
	// EdgeSeverity is the worst severity per edge index.
	EdgeSeverity map[int]graph.Severity
}

// Annotate folds detections into per-node and per-edge annotations.
// References to nodes or edges that do not exist in a are ignored.
func Annotate(a *graph.Analysis) Annotations {
	ann := Annotations{
		NodeKinds:    make(map[string][]string),
		NodeSeverity: make(map[string]graph.Severity),
		EdgeFlags:    make(map[int][]string),
		EdgeSeverity: make(map[int]graph.Severity),
	}

	for _, d := range a.Detections {
		for _, id := range d.Nodes {
			if _, ok := a.Node(id); !ok {
				continue
			}
			ann.NodeKinds[id] = append(ann.NodeKinds[id], d.Kind)
			ann.NodeSeverity[id] = graph.MaxSeverity(ann.NodeSeverity[id], d.Severity)
		}
		for _, idx := range d.Edges {
			if _, ok := a.Edge(idx); !ok {
				continue
			}
			ann.EdgeFlags[idx] = append(ann.EdgeFlags[idx], d.Kind)
			ann.EdgeSeverity[idx] = graph.MaxSeverity(ann.EdgeSeverity[idx], d.Severity)
		}
	}

	// A detection with an unknown severity still flags the element but must
	// not leave an empty severity behind.
	for id, sev := range ann.NodeSeverity {
		if !sev.Valid() {
			delete(ann.NodeSeverity, id)
		}
	}
	for idx, sev := range ann.EdgeSeverity {
		if !sev.Valid() {
			delete(ann.EdgeSeverity, idx)
		}
	}
	return ann
}

// AssignColors resolves the color of every detection kind in detection
// order. Fallback colors depend on assignment order, so every view of an
// analysis assigns through here before asking for individual kinds.
func AssignColors(a *graph.Analysis, colors *palette.Registry) {
	if a == nil || colors == nil {
		return
	}
	for _, d := range a.Detections {
		colors.ColorFor(d.Kind)
	}
}

// Map converts an analysis into its element model.
//
// Nodes are emitted in ascending ID order; edges keep their positional order
// and index. A nil analysis or registry is a programmer error.
func Map(a *graph.Analysis, colors *palette.Registry) (*Elements, error) {
	if a == nil {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "map: analysis is nil")
	}
	if colors == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "map: color registry is nil")
	}

	AssignColors(a, colors)
	ann := Annotate(a)
	out := &Elements{
		Nodes: make([]NodeElement, 0, len(a.Graph.Nodes)),
		Edges: make([]EdgeElement, 0, len(a.Graph.Edges)),
	}

	for _, id := range a.NodeIDs() {
		n, _ := a.Node(id)
		flags := ann.NodeKinds[id]
		out.Nodes = append(out.Nodes, NodeElement{
			ID:       id,
			Label:    n.DisplayLabel(),
			Kind:     n.Kind,
			Flags:    flags,
			Severity: ann.NodeSeverity[id],
			Color:    primaryColor(colors, flags),
			Colors:   colors.Colors(flags),
			Attrs:    n.Attrs,
		})
	}

	for i, e := range a.Graph.Edges {
		if e == nil {
			continue
		}
		flags := ann.EdgeFlags[i]
		out.Edges = append(out.Edges, EdgeElement{
			ID:       EdgeID(i),
			Index:    i,
			Source:   e.From,
			Target:   e.To,
			Kind:     e.Kind,
			Flags:    flags,
			Severity: ann.EdgeSeverity[i],
			Color:    primaryColor(colors, flags),
		})
	}

	return out, nil
}

// primaryColor is the color of the first flag, or Neutral.
func primaryColor(colors *palette.Registry, flags []string) palette.Color {
	if len(flags) == 0 {
		return palette.Neutral
	}
	return colors.ColorFor(flags[0])
}
