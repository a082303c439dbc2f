// Package logview provides the scrollable activity log panel.
package logview

import (
	"fmt"
	"strings"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

const maxEntries = lot.DefaultLogTrigger

// Model holds the activity log. Entries are newest first, as the server
// sends them.
type Model struct {
	Entries []lot.LogEntry
	Offset  int // scroll offset from the newest entry
}

// New creates an empty log model.
func New() Model {
	return Model{}
}

// SetEntries replaces the log with the server's copy and caps the buffer.
// Scroll resets to the top when a new entry arrived.
func (m *Model) SetEntries(entries []lot.LogEntry) {
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	fresh := len(entries) > 0 && (len(m.Entries) == 0 || entries[0] != m.Entries[0])
	m.Entries = append(m.Entries[:0:0], entries...)
	if fresh {
		m.Offset = 0
	}
	m.clamp()
}

// ScrollDown moves toward older entries.
func (m *Model) ScrollDown(n int) {
	m.Offset += n
	m.clamp()
}

// ScrollUp moves toward newer entries.
func (m *Model) ScrollUp(n int) {
	m.Offset -= n
	m.clamp()
}

func (m *Model) clamp() {
	max := len(m.Entries) - 1
	if max < 0 {
		max = 0
	}
	if m.Offset > max {
		m.Offset = max
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the log panel with at most height lines of entries.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height
	if visibleLines < 3 {
		visibleLines = 3
	}

	title := theme.StyleHeader.Render(" ACTIVITY ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  %d entries", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  No activity yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, body, help)
		return panelStyle(innerW).Render(content)
	}

	start := m.Offset
	end := min(start+visibleLines, len(m.Entries))

	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		tsStr := theme.StyleDimmed.Render(e.Time.Local().Format("15:04:05"))
		cat := string(e.Category)
		catStr := lipgloss.NewStyle().Foreground(theme.CategoryColor(cat)).Width(9).Render(cat)
		msgStr := e.Message
		if len(msgStr) > innerW-20 && innerW > 23 {
			msgStr = msgStr[:innerW-23] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", tsStr, catStr, msgStr))
	}

	body := strings.Join(lines, "\n")
	scrollIndicator := ""
	if m.Offset > 0 {
		scrollIndicator = theme.StyleDimmed.Render(fmt.Sprintf(" ↑ %d newer", m.Offset))
	}
	if rest := len(m.Entries) - end; rest > 0 {
		if scrollIndicator != "" {
			scrollIndicator += " "
		}
		scrollIndicator += theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d older", rest))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, scrollIndicator, help)
	return panelStyle(innerW).Render(content)
}
