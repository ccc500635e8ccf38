package layout

import "testing"

func TestConfigFor(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
	}{
		{"dagre", Dagre},
		{"cose-bilkent", CoseBilkent},
		{"cola", Cola},
		{"elk", ELK},
		{"  DAGRE ", Dagre},
		{"", ELK},
		{"breadthfirst", ELK},
		{"cose", ELK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConfigFor(tt.name).Name; got != tt.wantName {
				t.Errorf("ConfigFor(%q).Name = %q, want %q", tt.name, got, tt.wantName)
			}
		})
	}
}

func TestConfigForIsStable(t *testing.T) {
	a := ConfigFor(Dagre)
	a.Padding = 999
	if ConfigFor(Dagre).Padding == 999 {
		t.Error("ConfigFor must return a copy")
	}
}

func TestNames(t *testing.T) {
	got := Names()
	want := []string{"dagre", "cose-bilkent", "cola", "elk"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
		if !Known(want[i]) {
			t.Errorf("Known(%q) = false", want[i])
		}
	}
	if got[len(got)-1] != Default {
		t.Errorf("default layout must be the last enumerated name")
	}
	got[0] = "mutated"
	if Names()[0] != Dagre {
		t.Error("Names must return a copy")
	}
}

func TestLayered(t *testing.T) {
	if !ConfigFor(Dagre).Layered() || !ConfigFor(ELK).Layered() {
		t.Error("dagre and elk are layered")
	}
	if ConfigFor(Cola).Layered() || ConfigFor(CoseBilkent).Layered() {
		t.Error("cola and cose-bilkent are force directed")
	}
}
