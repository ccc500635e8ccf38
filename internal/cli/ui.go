package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/palette"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorOrange = lipgloss.Color("208") // Orange - medium severity
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

var severityStyles = map[graph.Severity]lipgloss.Style{
	graph.SeverityHigh:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	graph.SeverityMedium: lipgloss.NewStyle().Foreground(colorOrange),
	graph.SeverityLow:    lipgloss.NewStyle().Foreground(colorYellow),
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSwatch  = "██"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Domain rendering
// =============================================================================

// swatch renders a colored block followed by the hex value.
func swatch(c palette.Color) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c))).Render(iconSwatch) + " " + string(c)
}

// severity renders a severity label in its color. Unknown severities are
// shown dimmed.
func severity(sev graph.Severity) string {
	if sev == "" {
		return StyleDim.Render("-")
	}
	if st, ok := severityStyles[sev]; ok {
		return st.Render(string(sev))
	}
	return StyleDim.Render(string(sev))
}

// printStats prints graph statistics on a single line followed by the
// per-severity breakdown.
func printStats(w io.Writer, s annotate.Stats) {
	parts := []string{
		fmt.Sprintf("%d services", s.Services),
		fmt.Sprintf("%d databases", s.Databases),
		fmt.Sprintf("%d edges", s.Edges),
		fmt.Sprintf("%d detections", s.Detections),
		fmt.Sprintf("%d annotated", s.AnnotatedNodes),
	}
	fmt.Fprintln(w, "  "+StyleDim.Render(strings.Join(parts, " · ")))

	var sevs []string
	for _, sev := range []graph.Severity{graph.SeverityHigh, graph.SeverityMedium, graph.SeverityLow} {
		if n := s.BySeverity[sev]; n > 0 {
			sevs = append(sevs, fmt.Sprintf("%s %d", severity(sev), n))
		}
	}
	if len(sevs) > 0 {
		fmt.Fprintln(w, "  "+strings.Join(sevs, StyleDim.Render(" · ")))
	}
}

// newTable returns a table with the CLI's border and header style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
