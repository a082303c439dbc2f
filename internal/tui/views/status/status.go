package status

import (
	"fmt"

	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Name      string
	Available int
	Total     int
	Seq       uint64
	Notice    string
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// SetCounts updates the slot counts.
func (m *Model) SetCounts(available, total int) {
	m.Available = available
	m.Total = total
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	availColor := theme.ColorHealthy
	if m.Total > 0 && m.Available == 0 {
		availColor = theme.ColorDanger
	}
	counts := lipgloss.NewStyle().Foreground(availColor).
		Render(fmt.Sprintf("%d/%d available", m.Available, m.Total))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + counts
	if m.Name != "" {
		content = theme.StyleHeader.Render(m.Name) + sep + content
	}
	content += sep + theme.StyleDimmed.Render(fmt.Sprintf("seq %d", m.Seq))
	if m.Notice != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(m.Notice)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
