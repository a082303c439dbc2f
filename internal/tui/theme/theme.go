// Package theme provides the Lip Gloss color palette and reusable styles
// for the parking TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Slot colors.
var (
	ColorFree     = lipgloss.Color("#22c55e")
	ColorOccupied = lipgloss.Color("#dc2626")
)

// Log category colors.
var (
	ColorSlot     = lipgloss.Color("#6b7280")
	ColorEntry    = lipgloss.Color("#3b82f6")
	ColorTime     = lipgloss.Color("#7c3aed")
	ColorParking  = lipgloss.Color("#16a34a")
	ColorMovement = lipgloss.Color("#d97706")
	ColorExiting  = lipgloss.Color("#a855f7")
	ColorPayment  = lipgloss.Color("#f59e0b")
	ColorDefault  = lipgloss.Color("#9ca3af")
)

// Occupancy gauge thresholds.
var (
	ColorGaugeLow  = lipgloss.Color("#22c55e") // <50%
	ColorGaugeMid  = lipgloss.Color("#d97706") // 50-80%
	ColorGaugeHigh = lipgloss.Color("#dc2626") // >80%
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// CategoryColor returns the color for a log entry category.
func CategoryColor(category string) lipgloss.Color {
	switch category {
	case "slot":
		return ColorSlot
	case "entry":
		return ColorEntry
	case "time":
		return ColorTime
	case "parking":
		return ColorParking
	case "movement":
		return ColorMovement
	case "exiting":
		return ColorExiting
	case "payment":
		return ColorPayment
	default:
		return ColorDefault
	}
}

// GaugeColor returns the color for an occupancy ratio.
func GaugeColor(pct float64) lipgloss.Color {
	switch {
	case pct > 0.8:
		return ColorGaugeHigh
	case pct > 0.5:
		return ColorGaugeMid
	default:
		return ColorGaugeLow
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)

// SlotGlyph returns the glyph drawn for a slot cell.
func SlotGlyph(occupied bool) string {
	if occupied {
		return "■"
	}
	return "□"
}
