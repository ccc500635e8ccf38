package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/archmap/pkg/errors"
)

// =============================================================================
// Analysis Serialization API
// =============================================================================

// UnmarshalAnalysis decodes and normalizes an analysis payload.
// The payload must be a JSON object; anything else (arrays, strings, null)
// is rejected with an INVALID_PAYLOAD error.
func UnmarshalAnalysis(data []byte) (*Analysis, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "analysis payload must be a JSON object")
	}

	var a Analysis
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode analysis")
	}
	a.Normalize()
	return &a, nil
}

// ReadAnalysis decodes an analysis from an io.Reader.
// Use ReadAnalysisFile for files or pass bytes.NewReader for in-memory data.
func ReadAnalysis(r io.Reader) (*Analysis, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}
	return UnmarshalAnalysis(data)
}

// ReadAnalysisFile reads and decodes an analysis JSON file.
func ReadAnalysisFile(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "analysis file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalAnalysis(data)
}

// MarshalAnalysis encodes an analysis as indented JSON.
func MarshalAnalysis(a *Analysis) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// WriteAnalysisFile writes an analysis to a JSON file.
// The file is created with 0644 permissions.
func WriteAnalysisFile(a *Analysis, path string) error {
	data, err := MarshalAnalysis(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// =============================================================================
// Normalization and Lookup
// =============================================================================

// Normalize replaces absent collections with empty ones and backfills node
// IDs from their map keys. Nil node entries are dropped. Nil edge entries are
// kept so that edge indexes stay aligned with the payload.
func (a *Analysis) Normalize() {
	if a.Graph.Nodes == nil {
		a.Graph.Nodes = map[string]*Node{}
	}
	for id, n := range a.Graph.Nodes {
		if n == nil {
			delete(a.Graph.Nodes, id)
			continue
		}
		if n.ID == "" {
			n.ID = id
		}
	}
	if a.Graph.Edges == nil {
		a.Graph.Edges = []*Edge{}
	}
	if a.Detections == nil {
		a.Detections = []Detection{}
	}
}

// NodeIDs returns all node IDs in ascending order.
func (a *Analysis) NodeIDs() []string {
	ids := make([]string, 0, len(a.Graph.Nodes))
	for id := range a.Graph.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Node returns the node with the given ID.
func (a *Analysis) Node(id string) (*Node, bool) {
	n, ok := a.Graph.Nodes[id]
	return n, ok && n != nil
}

// Edge returns the edge at the given positional index.
func (a *Analysis) Edge(index int) (*Edge, bool) {
	if index < 0 || index >= len(a.Graph.Edges) || a.Graph.Edges[index] == nil {
		return nil, false
	}
	return a.Graph.Edges[index], true
}

// WithoutDetection returns a shallow copy of a with the detection at index i
// removed. The graph is shared; only the detection slice is copied.
// Out-of-range indexes return an unchanged copy.
func (a *Analysis) WithoutDetection(i int) *Analysis {
	out := *a
	out.Detections = make([]Detection, 0, len(a.Detections))
	for j, d := range a.Detections {
		if j != i {
			out.Detections = append(out.Detections, d)
		}
	}
	return &out
}
