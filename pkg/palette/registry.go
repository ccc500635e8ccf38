package palette

import (
	"regexp"
	"strings"
	"sync"
)

var separatorRun = regexp.MustCompile(`[\s-]+`)

// Normalize canonicalizes a detection kind: trims it, lowercases it and
// collapses every run of whitespace and hyphens into a single underscore.
func Normalize(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	return separatorRun.ReplaceAllString(k, "_")
}

// hashKind is a polynomial string hash over code points.
func hashKind(s string) uint32 {
	var h uint32
	for _, r := range s {
		h = h*31 + uint32(r)
	}
	return h
}

// Registry maps detection kinds to colors for one session.
//
// It is safe for concurrent use, although a view session only ever calls it
// from its event loop.
type Registry struct {
	mu       sync.Mutex
	fixed    map[string]Color
	fallback []Color
	assigned map[string]Color
	inUse    map[Color]bool
}

// New creates a registry with the curated table and default fallback palette.
func New() *Registry {
	return NewWithPalette(fixedColors, fallbackColors)
}

// NewWithPalette creates a registry with a custom curated table and fallback
// palette. Keys of fixed are normalized. An empty fallback palette makes every
// unknown kind render as Neutral.
func NewWithPalette(fixed map[string]Color, fallback []Color) *Registry {
	r := &Registry{
		fixed:    make(map[string]Color, len(fixed)),
		fallback: append([]Color(nil), fallback...),
		assigned: make(map[string]Color),
		inUse:    make(map[Color]bool),
	}
	for k, c := range fixed {
		r.fixed[Normalize(k)] = c
		r.inUse[c] = true
	}
	return r
}

// ColorFor returns the color of a detection kind. The same kind (after
// normalization) always yields the same color for the registry's lifetime.
func (r *Registry) ColorFor(kind string) Color {
	key := Normalize(kind)

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.fixed[key]; ok {
		return c
	}
	if c, ok := r.assigned[key]; ok {
		return c
	}
	if len(r.fallback) == 0 {
		return Neutral
	}

	start := int(hashKind(key) % uint32(len(r.fallback)))
	c := r.fallback[start]
	for i := 0; i < len(r.fallback); i++ {
		candidate := r.fallback[(start+i)%len(r.fallback)]
		if !r.inUse[candidate] {
			c = candidate
			break
		}
	}

	r.assigned[key] = c
	r.inUse[c] = true
	return c
}

// Colors returns the colors of kinds in order, one per entry.
func (r *Registry) Colors(kinds []string) []Color {
	out := make([]Color, len(kinds))
	for i, k := range kinds {
		out[i] = r.ColorFor(k)
	}
	return out
}

// Assignments returns a copy of the fallback assignments made so far,
// keyed by normalized kind.
func (r *Registry) Assignments() map[string]Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Color, len(r.assigned))
	for k, v := range r.assigned {
		out[k] = v
	}
	return out
}

// IsFixed reports whether kind has a curated color.
func (r *Registry) IsFixed(kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.fixed[Normalize(kind)]
	return ok
}
