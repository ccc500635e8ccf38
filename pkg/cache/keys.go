package cache

import "strings"

// Keyer builds cache keys.
type Keyer interface {
	// AnalysisKey is the key of a stored analysis by ID.
	AnalysisKey(id string) string

	// LastAnalysisKey is the key of the last analysis a client loaded.
	LastAnalysisKey(client string) string

	// ElementsKey is the key of the element model mapped from an analysis
	// with the given content hash.
	ElementsKey(analysisHash string, opts ElementsKeyOpts) string
}

// ElementsKeyOpts are the inputs besides the analysis that change a mapped
// element model.
type ElementsKeyOpts struct {
	// Palette identifies the color palette; empty means the default one.
	Palette string `json:"palette,omitempty"`
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AnalysisKey implements Keyer.
func (DefaultKeyer) AnalysisKey(id string) string { return "analysis:" + id }

// LastAnalysisKey implements Keyer.
func (DefaultKeyer) LastAnalysisKey(client string) string { return "last:" + client }

// ElementsKey implements Keyer.
func (DefaultKeyer) ElementsKey(analysisHash string, opts ElementsKeyOpts) string {
	return hashKey("elements", analysisHash, opts)
}

// KeyType returns the key family (the text before the first colon), used to
// label cache metrics.
func KeyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
