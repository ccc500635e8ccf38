package graph

// =============================================================================
// Node and Edge Kinds
// =============================================================================

// NodeKind classifies a node of the service-dependency graph.
type NodeKind string

// Node kinds emitted by the detection service.
const (
	KindService        NodeKind = "SERVICE"
	KindDatabase       NodeKind = "DATABASE"
	KindAPIGateway     NodeKind = "API_GATEWAY"
	KindEventTopic     NodeKind = "EVENT_TOPIC"
	KindExternalSystem NodeKind = "EXTERNAL_SYSTEM"
	KindClient         NodeKind = "CLIENT"
	KindUserActor      NodeKind = "USER_ACTOR"
)

// NodeKinds lists every known node kind in display order.
var NodeKinds = []NodeKind{
	KindService, KindDatabase, KindAPIGateway, KindEventTopic,
	KindExternalSystem, KindClient, KindUserActor,
}

// EdgeKind classifies the interaction an edge represents.
type EdgeKind string

// Edge kinds emitted by the detection service.
const (
	EdgeCalls  EdgeKind = "CALLS"
	EdgeReads  EdgeKind = "READS"
	EdgeWrites EdgeKind = "WRITES"
)

// =============================================================================
// Severity
// =============================================================================

// Severity is the severity of a detection.
type Severity string

// Severities in ascending order.
const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Rank returns the position of s in the order LOW < MEDIUM < HIGH.
// Unknown and empty severities rank 0, below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// MaxSeverity returns the higher of a and b by rank. When both rank equally
// a is returned; callers cannot observe the difference.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// =============================================================================
// Payload Types
// =============================================================================

// Attrs holds free-form attributes (owner, team, endpoints, rates...).
type Attrs map[string]any

// Node is a service, database or other participant of the architecture.
type Node struct {
	ID    string   `json:"id" bson:"id"`
	Name  string   `json:"name" bson:"name"`
	Kind  NodeKind `json:"kind" bson:"kind"`
	Attrs Attrs    `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// DisplayLabel returns the name if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Edge is a directed interaction between two nodes.
type Edge struct {
	From  string   `json:"from" bson:"from"`
	To    string   `json:"to" bson:"to"`
	Kind  EdgeKind `json:"kind" bson:"kind"`
	Attrs Attrs    `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Detection is an anti-pattern flagged by the detection service. It
// implicates zero or more nodes (by ID) and edges (by positional index).
type Detection struct {
	Kind     string   `json:"kind" bson:"kind"`
	Severity Severity `json:"severity" bson:"severity"`
	Title    string   `json:"title" bson:"title"`
	Summary  string   `json:"summary,omitempty" bson:"summary,omitempty"`
	Nodes    []string `json:"nodes" bson:"nodes"`
	Edges    []int    `json:"edges" bson:"edges"`
	Evidence Attrs    `json:"evidence,omitempty" bson:"evidence,omitempty"`
}

// Graph is the service-dependency graph of an analysis.
type Graph struct {
	Nodes map[string]*Node `json:"nodes" bson:"nodes"`
	Edges []*Edge          `json:"edges" bson:"edges"`
}

// Analysis is the complete result returned by the detection service.
type Analysis struct {
	Graph      Graph       `json:"graph" bson:"graph"`
	Detections []Detection `json:"detections" bson:"detections"`
	DotPath    string      `json:"dot_path,omitempty" bson:"dot_path,omitempty"`
	SVGPath    string      `json:"svg_path,omitempty" bson:"svg_path,omitempty"`
}
