package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis without colliding.
//
//	keys := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AnalysisKey implements Keyer.
func (k *ScopedKeyer) AnalysisKey(id string) string {
	return k.prefix + k.inner.AnalysisKey(id)
}

// LastAnalysisKey implements Keyer.
func (k *ScopedKeyer) LastAnalysisKey(client string) string {
	return k.prefix + k.inner.LastAnalysisKey(client)
}

// ElementsKey implements Keyer.
func (k *ScopedKeyer) ElementsKey(analysisHash string, opts ElementsKeyOpts) string {
	return k.prefix + k.inner.ElementsKey(analysisHash, opts)
}
