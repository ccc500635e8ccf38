// Package graph provides the analysis payload types consumed by archmap.
//
// An analysis is produced by an external detection service and describes a
// service-dependency graph plus the architectural anti-patterns detected on
// it. This package is the serialization boundary: everything downstream
// (annotation, overlays, exports) works on the normalized [Analysis].
//
// # Wire Format
//
//	{
//	  "graph": {
//	    "nodes": {"api": {"id": "api", "name": "API", "kind": "SERVICE"}},
//	    "edges": [{"from": "api", "to": "db", "kind": "WRITES"}]
//	  },
//	  "detections": [
//	    {"kind": "shared_db_writes", "severity": "HIGH", "nodes": ["api"], "edges": [0]}
//	  ],
//	  "dot_path": "out/graph.dot",
//	  "svg_path": "out/graph.svg"
//	}
//
// Any of nodes, edges and detections may be absent or null. They decode to
// empty collections, never to an error. A payload that is not a JSON object
// at all is a programmer error and is rejected by [UnmarshalAnalysis].
//
// # Edge Indexes
//
// Detections reference edges by their position in graph.edges. That index is
// fixed once the analysis is decoded; nothing in archmap reorders edges.
//
// # Severity
//
// [Severity] values are ordered LOW < MEDIUM < HIGH through [Severity.Rank].
// Use [MaxSeverity] rather than comparing the strings.
//
// # Concurrency
//
// Decoded analyses are treated as immutable and are safe for concurrent reads.
package graph
