package annotate

import "github.com/matzehuels/archmap/pkg/graph"

// Stats are the aggregate counters displayed alongside the graph.
type Stats struct {
	Services   int `json:"services"`
	Databases  int `json:"databases"`
	Edges      int `json:"edges"`
	Detections int `json:"detections"`

	// BySeverity counts detections per severity.
	BySeverity map[graph.Severity]int `json:"by_severity,omitempty"`
	// AnnotatedNodes counts nodes implicated by at least one detection.
	AnnotatedNodes int `json:"annotated_nodes"`
}

// ComputeStats derives Stats from the current analysis. It never mutates a.
func ComputeStats(a *graph.Analysis) Stats {
	if a == nil {
		return Stats{}
	}

	s := Stats{BySeverity: make(map[graph.Severity]int)}
	for _, n := range a.Graph.Nodes {
		if n == nil {
			continue
		}
		switch n.Kind {
		case graph.KindService:
			s.Services++
		case graph.KindDatabase:
			s.Databases++
		}
	}
	for _, e := range a.Graph.Edges {
		if e != nil {
			s.Edges++
		}
	}

	s.Detections = len(a.Detections)
	for _, d := range a.Detections {
		if d.Severity.Valid() {
			s.BySeverity[d.Severity]++
		}
	}
	s.AnnotatedNodes = len(Annotate(a).NodeKinds)
	return s
}
