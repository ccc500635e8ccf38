package palette

// Color is a CSS hex color ("#rrggbb").
type Color string

// Neutral is used for elements without detections.
const Neutral Color = "#94a3b8"

// Curated colors for the detection kinds the analysis service emits.
// Keys are normalized kinds (see Normalize).
var fixedColors = map[string]Color{
	"cycles":               "#ef4444",
	"god_service":          "#f97316",
	"tight_coupling":       "#a855f7",
	"shared_db_writes":     "#0ea5e9",
	"sync_call_chain":      "#eab308",
	"ping_pong_dependency": "#ec4899",
	"reverse_dependency":   "#14b8a6",
	"ui_orchestrator":      "#6366f1",
	"shared_database":      "#0891b2",
	"chatty_service":       "#84cc16",
}

// fallbackColors is probed for kinds missing from fixedColors.
var fallbackColors = []Color{
	"#22c55e",
	"#f59e0b",
	"#3b82f6",
	"#d946ef",
	"#10b981",
	"#fb7185",
	"#7c3aed",
	"#64748b",
	"#e11d48",
	"#0284c7",
	"#65a30d",
	"#c2410c",
}

// FixedColors returns a copy of the curated kind → color table.
func FixedColors() map[string]Color {
	out := make(map[string]Color, len(fixedColors))
	for k, v := range fixedColors {
		out[k] = v
	}
	return out
}

// FallbackColors returns a copy of the fallback palette.
func FallbackColors() []Color {
	return append([]Color(nil), fallbackColors...)
}
