// Package layout maps layout names to the static configuration handed to the
// rendering surface when a layout run is requested.
//
// The set of layouts is fixed: dagre, cose-bilkent, cola and elk. Unknown
// names resolve to elk, the last entry of the enumeration.
//
// # Usage
//
//	cfg := layout.ConfigFor("dagre")
//	surface.RunLayout(cfg)
package layout

import "strings"

// Layout names understood by ConfigFor.
const (
	Dagre       = "dagre"
	CoseBilkent = "cose-bilkent"
	Cola        = "cola"
	ELK         = "elk"
)

// Default is the layout used when none, or an unknown one, is requested.
const Default = ELK

// Direction is the primary flow direction of a layered layout.
type Direction string

// Flow directions.
const (
	TopToBottom Direction = "TB"
	LeftToRight Direction = "LR"
)

// Config is the renderer-facing configuration of one layout. Zero fields are
// not applicable to the named algorithm.
type Config struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction,omitempty"`

	NodeSep float64 `json:"node_sep,omitempty"`
	RankSep float64 `json:"rank_sep,omitempty"`
	EdgeSep float64 `json:"edge_sep,omitempty"`

	IdealEdgeLength float64 `json:"ideal_edge_length,omitempty"`
	NodeRepulsion   float64 `json:"node_repulsion,omitempty"`
	Gravity         float64 `json:"gravity,omitempty"`
	Iterations      int     `json:"iterations,omitempty"`

	Animate bool    `json:"animate"`
	Fit     bool    `json:"fit"`
	Padding float64 `json:"padding"`
}

// Layered reports whether the layout arranges nodes in ranks along Direction.
func (c Config) Layered() bool { return c.Direction != "" }

var configs = map[string]Config{
	Dagre: {
		Name:      Dagre,
		Direction: LeftToRight,
		NodeSep:   60,
		RankSep:   120,
		EdgeSep:   20,
		Fit:       true,
		Padding:   40,
	},
	CoseBilkent: {
		Name:            CoseBilkent,
		IdealEdgeLength: 140,
		NodeRepulsion:   6500,
		Gravity:         0.25,
		Iterations:      2500,
		Animate:         true,
		Fit:             true,
		Padding:         40,
	},
	Cola: {
		Name:            Cola,
		IdealEdgeLength: 160,
		NodeSep:         50,
		Iterations:      1000,
		Animate:         true,
		Fit:             true,
		Padding:         40,
	},
	ELK: {
		Name:      ELK,
		Direction: LeftToRight,
		NodeSep:   70,
		RankSep:   140,
		EdgeSep:   25,
		Fit:       true,
		Padding:   40,
	},
}

var names = []string{Dagre, CoseBilkent, Cola, ELK}

// ConfigFor returns the configuration for name. Matching ignores case and
// surrounding whitespace; unknown names return the elk configuration.
func ConfigFor(name string) Config {
	if c, ok := configs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return configs[Default]
}

// Known reports whether name is one of the enumerated layouts.
func Known(name string) bool {
	_, ok := configs[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names returns the enumerated layout names in order.
func Names() []string {
	return append([]string(nil), names...)
}
