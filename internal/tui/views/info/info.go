// Package info renders the lot information overlay. The pricing rule is
// markdown and is rendered with glamour.
package info

import (
	"fmt"
	"strings"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/theme"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Model caches the rendered pricing rule per width.
type Model struct {
	info     lot.Info
	rendered string
	width    int
}

// New creates an info model.
func New() Model {
	return Model{}
}

// SetInfo stores the lot description. The cached rendering is dropped when
// the pricing rule changes.
func (m *Model) SetInfo(info lot.Info) {
	if info.PricingRule != m.info.PricingRule {
		m.rendered = ""
	}
	m.info = info
}

// renderPricing renders the pricing rule markdown, falling back to the raw
// text when glamour fails.
func (m *Model) renderPricing(width int) string {
	if m.info.PricingRule == "" {
		return theme.StyleDimmed.Render("No pricing rule configured.")
	}
	if m.rendered != "" && m.width == width {
		return m.rendered
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return m.info.PricingRule
	}
	out, err := r.Render(m.info.PricingRule)
	if err != nil {
		return m.info.PricingRule
	}
	m.rendered = strings.TrimRight(out, "\n")
	m.width = width
	return m.rendered
}

func innerWidth(width int) int {
	if width-4 < 30 {
		return 30
	}
	return width - 4
}

// Prepare renders the pricing rule for the given terminal width ahead of
// View so the cached output survives Bubble Tea's value-copied models.
func (m *Model) Prepare(width int) {
	m.renderPricing(innerWidth(width) - 4)
}

// View renders the overlay panel.
func (m *Model) View(width int) string {
	innerW := innerWidth(width)

	name := m.info.Name
	if name == "" {
		name = "Parking lot"
	}
	title := theme.StyleHeader.Render(" " + strings.ToUpper(name) + " ")

	sections := []string{title, ""}
	if m.info.Currency != "" {
		sections = append(sections, fmt.Sprintf("Currency: %s", m.info.Currency), "")
	}
	sections = append(sections,
		theme.StyleHeader.Render("Pricing"),
		m.renderPricing(innerW-4),
		"",
		theme.StyleHeader.Render("Readers"),
	)

	if len(m.info.Readers) == 0 {
		sections = append(sections, theme.StyleDimmed.Render("  none"))
	}
	for _, rd := range m.info.Readers {
		line := fmt.Sprintf("  %-12s %-6s", rd.ID, rd.Role)
		if rd.Location != "" {
			line += " " + theme.StyleDimmed.Render(rd.Location)
		}
		sections = append(sections, line)
	}
	sections = append(sections, "", theme.StyleDimmed.Render("esc:close"))

	return lipgloss.NewStyle().
		Width(innerW).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
