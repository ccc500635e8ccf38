package export

import (
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/archmap/pkg/errors"
	"github.com/matzehuels/archmap/pkg/graph"
)

// DocumentVersion is the version written to YAML documents.
const DocumentVersion = "1"

// Document is the YAML export of an analysis graph.
type Document struct {
	Version      string         `yaml:"version"`
	Services     []Service      `yaml:"services"`
	Dependencies []Dependency   `yaml:"dependencies"`
	Configs      map[string]any `yaml:"configs"`
	Deployment   map[string]any `yaml:"deployment"`
}

// Service is one node of the graph.
type Service struct {
	ID    string         `yaml:"id"`
	Name  string         `yaml:"name"`
	Kind  string         `yaml:"kind"`
	Attrs map[string]any `yaml:"attrs,omitempty"`
}

// Dependency is one edge of the graph.
type Dependency struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind"`
}

// NewDocument builds the export document. Services are ordered by ID and
// dependencies keep their positional order; nil edges are skipped.
func NewDocument(a *graph.Analysis) Document {
	doc := Document{
		Version:      DocumentVersion,
		Services:     []Service{},
		Dependencies: []Dependency{},
		Configs:      map[string]any{},
		Deployment:   map[string]any{},
	}
	for _, id := range a.NodeIDs() {
		n, _ := a.Node(id)
		doc.Services = append(doc.Services, Service{
			ID:    id,
			Name:  n.DisplayLabel(),
			Kind:  string(n.Kind),
			Attrs: n.Attrs,
		})
	}
	for _, e := range a.Graph.Edges {
		if e == nil {
			continue
		}
		doc.Dependencies = append(doc.Dependencies, Dependency{From: e.From, To: e.To, Kind: string(e.Kind)})
	}
	return doc
}

// YAML encodes the analysis graph as a YAML document.
func YAML(a *graph.Analysis) ([]byte, error) {
	if a == nil {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "export: analysis is nil")
	}
	data, err := yaml.Marshal(NewDocument(a))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return data, nil
}
