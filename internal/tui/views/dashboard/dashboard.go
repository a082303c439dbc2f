// Package dashboard renders the stats row, the slot grid and the animated
// occupancy gauge for the parking TUI.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	fps           = 60
	gaugeWidth    = 30
	settleEpsilon = 0.001
	slotsPerRow   = 10
)

// FrameMsg advances the gauge animation by one frame.
type FrameMsg time.Time

// Model holds the dashboard state.
type Model struct {
	Width int

	snap lot.Snapshot

	spring    harmonica.Spring
	gauge     float64
	velocity  float64
	target    float64
	animating bool
}

// New creates a dashboard model.
func New() Model {
	return Model{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.8),
	}
}

// SetSnapshot stores the latest snapshot and retargets the gauge. It returns
// a frame command when the gauge starts moving.
func (m *Model) SetSnapshot(s lot.Snapshot) tea.Cmd {
	m.snap = s
	m.target = occupancy(s)
	if m.animating || m.settled() {
		return nil
	}
	m.animating = true
	return frame()
}

// Tick steps the spring. It returns the next frame command until the gauge
// settles on its target.
func (m *Model) Tick() tea.Cmd {
	if !m.animating {
		return nil
	}
	m.gauge, m.velocity = m.spring.Update(m.gauge, m.velocity, m.target)
	if m.settled() {
		m.gauge = m.target
		m.velocity = 0
		m.animating = false
		return nil
	}
	return frame()
}

// Gauge returns the currently displayed occupancy ratio.
func (m Model) Gauge() float64 { return m.gauge }

// Animating reports whether the gauge is still moving.
func (m Model) Animating() bool { return m.animating }

func (m Model) settled() bool {
	return math.Abs(m.gauge-m.target) < settleEpsilon && math.Abs(m.velocity) < settleEpsilon
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func occupancy(s lot.Snapshot) float64 {
	if s.TotalSlots <= 0 {
		return 0
	}
	return float64(s.TotalSlots-s.AvailableSlots) / float64(s.TotalSlots)
}

// View renders the full dashboard: stats row, gauge and slot grid.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	sections := []string{
		m.renderStatsRow(width),
		m.renderGauge(),
		m.renderSlots(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatsRow(width int) string {
	statStyle := lipgloss.NewStyle().Padding(0, 1)
	currency := m.snap.Config.Currency

	stats := []string{
		statStyle.Foreground(theme.ColorFree).Render(
			fmt.Sprintf("Available: %d", m.snap.AvailableSlots)),
		statStyle.Foreground(theme.ColorOccupied).Render(
			fmt.Sprintf("Occupied: %d", m.snap.Occupied())),
		statStyle.Foreground(theme.ColorParking).Render(
			fmt.Sprintf("Parked: %d", m.snap.ParkedCount())),
		statStyle.Foreground(theme.ColorPayment).Render(
			strings.TrimSpace(fmt.Sprintf("Revenue: %s %s", formatAmount(m.snap.Revenue), currency))),
		statStyle.Foreground(theme.ColorBright).Render(
			fmt.Sprintf("Transactions: %d", m.snap.Transactions)),
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderGauge() string {
	return "  Occupancy " + renderBar(m.gauge, gaugeWidth)
}

// renderBar draws a progress bar with a percentage label.
func renderBar(pct float64, fillWidth int) string {
	pct = math.Max(0, math.Min(pct, 1))
	filled := max(0, min(int(math.Round(pct*float64(fillWidth))), fillWidth))
	empty := fillWidth - filled

	color := theme.GaugeColor(pct)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", empty))
	label := fmt.Sprintf(" %3.0f%%", pct*100)

	return bar + lipgloss.NewStyle().Foreground(color).Render(label)
}

func (m Model) renderSlots() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render("  Slots")

	if len(m.snap.Slots) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No slots configured"),
		)
	}

	lines := []string{header}
	var row []string
	for i, v := range m.snap.Slots {
		occupied := v == 1
		color := theme.ColorFree
		if occupied {
			color = theme.ColorOccupied
		}
		cell := lipgloss.NewStyle().Foreground(color).
			Render(fmt.Sprintf("%s %-3d", theme.SlotGlyph(occupied), i+1))
		row = append(row, cell)
		if len(row) == slotsPerRow {
			lines = append(lines, "  "+strings.Join(row, " "))
			row = row[:0]
		}
	}
	if len(row) > 0 {
		lines = append(lines, "  "+strings.Join(row, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// formatAmount formats large numbers with K/M suffixes.
func formatAmount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
