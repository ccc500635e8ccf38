package palette

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo_bar", "foo_bar"},
		{"foo-bar ", "foo_bar"},
		{"  Foo   Bar ", "foo_bar"},
		{"God-Service", "god_service"},
		{"a - b", "a_b"},
		{"a--b__c", "a_b__c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColorForFixed(t *testing.T) {
	r := New()
	if got := r.ColorFor("shared_db_writes"); got != fixedColors["shared_db_writes"] {
		t.Errorf("ColorFor(shared_db_writes) = %s, want %s", got, fixedColors["shared_db_writes"])
	}
	if got := r.ColorFor("Shared-DB Writes"); got != fixedColors["shared_db_writes"] {
		t.Errorf("fixed lookup should normalize, got %s", got)
	}
	if !r.IsFixed("cycles") || r.IsFixed("foo") {
		t.Error("IsFixed mismatch")
	}
	if len(r.Assignments()) != 0 {
		t.Error("fixed lookups must not create fallback assignments")
	}
}

func TestColorForNormalizedKindsShareColor(t *testing.T) {
	r := New()
	a := r.ColorFor("foo_bar")
	b := r.ColorFor("foo-bar ")
	if a != b {
		t.Errorf("foo_bar = %s, foo-bar = %s; want identical", a, b)
	}
	if len(r.Assignments()) != 1 {
		t.Errorf("assignments = %v, want exactly one", r.Assignments())
	}
}

func TestColorForFallbackAvoidsFixedAndTaken(t *testing.T) {
	fixed := map[string]Color{"known": "#000001"}
	fallback := []Color{"#000001", "#000002", "#000003"}
	r := NewWithPalette(fixed, fallback)

	seen := map[Color]string{"#000001": "known"}
	for _, kind := range []string{"x", "y"} {
		c := r.ColorFor(kind)
		if other, ok := seen[c]; ok {
			t.Errorf("%s got %s already used by %s", kind, c, other)
		}
		seen[c] = kind
	}
}

func TestColorForExhaustedPaletteCollides(t *testing.T) {
	fallback := []Color{"#111111", "#222222"}
	r := NewWithPalette(nil, fallback)

	first := r.ColorFor("a")
	second := r.ColorFor("b")
	if first == second {
		t.Fatalf("first two kinds should get distinct colors, both %s", first)
	}

	third := r.ColorFor("c")
	want := fallback[hashKind("c")%uint32(len(fallback))]
	if third != want {
		t.Errorf("exhausted palette: ColorFor(c) = %s, want hash-index color %s", third, want)
	}
	if again := r.ColorFor("c"); again != third {
		t.Errorf("collided color changed: %s then %s", third, again)
	}
}

func TestColorForEmptyFallback(t *testing.T) {
	r := NewWithPalette(nil, nil)
	if got := r.ColorFor("anything"); got != Neutral {
		t.Errorf("ColorFor = %s, want Neutral", got)
	}
}

func TestColorForEarlierAssignmentsNeverChange(t *testing.T) {
	r := New()
	before := r.ColorFor("alpha")
	for _, k := range []string{"beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa", "lambda", "mu", "nu", "xi"} {
		r.ColorFor(k)
	}
	if after := r.ColorFor("alpha"); after != before {
		t.Errorf("alpha changed from %s to %s", before, after)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()
	a.ColorFor("zzz_unknown")
	if len(b.Assignments()) != 0 {
		t.Error("registries must not share assignments")
	}
}

func TestColorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same kind always yields same color", prop.ForAll(
		func(kinds []string) bool {
			r := New()
			first := make(map[string]Color, len(kinds))
			for _, k := range kinds {
				first[k] = r.ColorFor(k)
			}
			for i := len(kinds) - 1; i >= 0; i-- {
				if r.ColorFor(kinds[i]) != first[kinds[i]] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("distinct unknown kinds get distinct colors", prop.ForAll(
		func(k1, k2 string) bool {
			r := New()
			if Normalize(k1) == Normalize(k2) || r.IsFixed(k1) || r.IsFixed(k2) {
				return true
			}
			return r.ColorFor(k1) != r.ColorFor(k2)
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.Property("colors come from the curated table or fallback palette", prop.ForAll(
		func(k string) bool {
			c := New().ColorFor(k)
			for _, f := range fixedColors {
				if c == f {
					return true
				}
			}
			for _, f := range fallbackColors {
				if c == f {
					return true
				}
			}
			return false
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
