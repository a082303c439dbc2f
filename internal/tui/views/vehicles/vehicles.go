// Package vehicles renders the table of tracked vehicle sessions.
package vehicles

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

const (
	colCard     = 14
	colStatus   = 8
	colSlot     = 5
	colTime     = 9
	colDuration = 10
	colFee      = 10
)

// Model holds the vehicle table state.
type Model struct {
	Width    int
	MaxRows  int
	vehicles []lot.VehicleSession
}

// New creates a vehicle table model.
func New() Model {
	return Model{MaxRows: 10}
}

// SetVehicles stores the sessions newest first.
func (m *Model) SetVehicles(vs []lot.VehicleSession) {
	m.vehicles = make([]lot.VehicleSession, len(vs))
	for i, v := range vs {
		m.vehicles[len(vs)-1-i] = v
	}
}

// View renders the table.
func (m Model) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render("  Vehicles")

	if len(m.vehicles) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No vehicles"),
		)
	}

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)

	tableHeader := fmt.Sprintf("  %-*s %-*s %*s %-*s %-*s %-*s %*s",
		colCard, "Card",
		colStatus, "Status",
		colSlot, "Slot",
		colTime, "Entry",
		colTime, "Exit",
		colDuration, "Duration",
		colFee, "Fee",
	)
	total := colCard + colStatus + colSlot + 2*colTime + colDuration + colFee + 6
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", max(0, min(m.Width-4, total)))),
	}

	rows := m.vehicles
	if m.MaxRows > 0 && len(rows) > m.MaxRows {
		rows = rows[:m.MaxRows]
	}
	for _, v := range rows {
		card := v.ID
		if len(card) > colCard-1 {
			card = card[:colCard-2] + "…"
		}
		statusColor := theme.ColorParking
		if v.Status == lot.Exited {
			statusColor = theme.ColorDimmed
		}

		slot := "-"
		if v.Slot > 0 {
			slot = fmt.Sprintf("%d", v.Slot)
		}
		exit := "-"
		if v.ExitTime.Valid {
			exit = clock(v.ExitTime.Time)
		}
		duration := v.Duration
		if duration == "" {
			duration = "-"
		}
		fee := "-"
		if v.Fee > 0 {
			fee = fmt.Sprintf("%d", v.Fee)
		}

		line := fmt.Sprintf("  %s %s %s %s %s %s %s",
			lipgloss.NewStyle().Foreground(theme.ColorBright).Width(colCard).Render(card),
			lipgloss.NewStyle().Foreground(statusColor).Width(colStatus).Render(v.Status.String()),
			lipgloss.NewStyle().Width(colSlot).Align(lipgloss.Right).Render(slot),
			dimStyle.Width(colTime).Render(clock(v.EntryTime)),
			dimStyle.Width(colTime).Render(exit),
			lipgloss.NewStyle().Width(colDuration).Render(duration),
			lipgloss.NewStyle().Foreground(theme.ColorPayment).Width(colFee).Align(lipgloss.Right).Render(fee),
		)
		lines = append(lines, line)
	}
	if hidden := len(m.vehicles) - len(rows); hidden > 0 {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("  … %d more", hidden)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
