package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/archmap/pkg/graph"
	"github.com/matzehuels/archmap/pkg/palette"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	detailHeadStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// detectionSource is the session the browser reads detections from and
// dismisses them on.
type detectionSource interface {
	detections() []graph.Detection
	dismiss(i int) error
	haloStroke(node string) (float64, bool)
	color(kind string) palette.Color
}

// =============================================================================
// DetectionBrowser - Interactive detection list
// =============================================================================

// DetectionBrowser is the bubbletea model of `archmap inspect`. It lists the
// detections of a mapped analysis and dismisses them on request; halos are
// re-synchronized after every dismissal.
type DetectionBrowser struct {
	src       detectionSource
	Cursor    int
	Offset    int
	Height    int
	Dismissed []string
	status    string
}

// NewDetectionBrowser creates a browser over src.
func NewDetectionBrowser(src detectionSource) DetectionBrowser {
	return DetectionBrowser{src: src, Height: 10}
}

func (m DetectionBrowser) Init() tea.Cmd {
	return nil
}

func (m DetectionBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		n := len(m.src.detections())
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
			}
		case "d", "x", "delete":
			if n == 0 {
				return m, nil
			}
			d := m.src.detections()[m.Cursor]
			if err := m.src.dismiss(m.Cursor); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.Dismissed = append(m.Dismissed, d.Kind)
			m.status = fmt.Sprintf("dismissed %s", d.Kind)
			if m.Cursor >= n-1 && m.Cursor > 0 {
				m.Cursor--
			}
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 3)
		m.scroll()
	}
	return m, nil
}

func (m *DetectionBrowser) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m DetectionBrowser) View() string {
	var b strings.Builder
	dets := m.src.detections()

	b.WriteString(StyleTitle.Render("Detections"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  d dismiss  q quit"))
	b.WriteString("\n\n")

	if len(dets) == 0 {
		b.WriteString(StyleSuccess.Render("No detections left"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(dets))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := dets[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		kind := lipgloss.NewStyle().Foreground(lipgloss.Color(string(m.src.color(d.Kind)))).Render("●") + " " + d.Kind
		rows = append(rows, []string{cursor, kind, severity(d.Severity), fmt.Sprint(len(d.Nodes)), fmt.Sprint(len(d.Edges)), d.Title})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Severity", "Nodes", "Edges", "Title").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Bold(true)
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(m.detail(dets[m.Cursor]))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(dets))))
	if m.status != "" {
		b.WriteString("  " + StyleWarning.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

// detail renders the selected detection with the halo of each implicated
// node.
func (m DetectionBrowser) detail(d graph.Detection) string {
	var lines []string
	lines = append(lines, detailHeadStyle.Render(d.Title))
	if d.Summary != "" {
		lines = append(lines, d.Summary)
	}
	for _, id := range d.Nodes {
		halo := listDimStyle.Render("no halo")
		if w, ok := m.src.haloStroke(id); ok {
			halo = fmt.Sprintf("halo %gpx", w)
		}
		lines = append(lines, fmt.Sprintf("  %s %s", id, halo))
	}
	if len(d.Edges) > 0 {
		lines = append(lines, listDimStyle.Render(fmt.Sprintf("  edges %v", d.Edges)))
	}
	return detailBoxStyle.Render(strings.Join(lines, "\n"))
}
