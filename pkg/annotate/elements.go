package annotate

import (
	"strconv"

	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/palette"
)

// NodeElement is the renderable form of a graph node.
type NodeElement struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Kind     graph.NodeKind  `json:"kind"`
	Flags    []string        `json:"flags,omitempty"`
	Severity graph.Severity  `json:"sev,omitempty"`
	Color    palette.Color   `json:"color"`
	Colors   []palette.Color `json:"colors,omitempty"`
	Attrs    graph.Attrs     `json:"attrs,omitempty"`
}

// Flagged reports whether at least one detection implicates the node.
func (n *NodeElement) Flagged() bool { return len(n.Flags) > 0 }

// EdgeElement is the renderable form of a graph edge. Index is the edge's
// position in the analysis and is what detections refer to.
type EdgeElement struct {
	ID       string         `json:"id"`
	Index    int            `json:"index"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Kind     graph.EdgeKind `json:"kind"`
	Flags    []string       `json:"flags,omitempty"`
	Severity graph.Severity `json:"sev,omitempty"`
	Color    palette.Color  `json:"color"`
}

// Elements is the complete element model of one analysis.
type Elements struct {
	Nodes []NodeElement `json:"nodes"`
	Edges []EdgeElement `json:"edges"`
}

// Node returns the node element with the given ID.
func (e *Elements) Node(id string) (*NodeElement, bool) {
	for i := range e.Nodes {
		if e.Nodes[i].ID == id {
			return &e.Nodes[i], true
		}
	}
	return nil, false
}

// FlaggedNodes returns the IDs of nodes implicated by at least one detection.
func (e *Elements) FlaggedNodes() []string {
	var ids []string
	for i := range e.Nodes {
		if e.Nodes[i].Flagged() {
			ids = append(ids, e.Nodes[i].ID)
		}
	}
	return ids
}

// EdgeID returns the element ID of the edge at index.
func EdgeID(index int) string {
	return "e" + strconv.Itoa(index)
}
