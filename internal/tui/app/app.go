package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/client"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/theme"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/views/dashboard"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/views/info"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/views/logview"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/views/status"
	"github.com/Cuongtutrinh/smart-parking-server/internal/tui/views/vehicles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayInfo
	OverlayHealth
)

const minLogLines = 5

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	http   *client.HTTPClient
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	help   help.Model
	width  int
	height int

	snap    lot.Snapshot
	health  *client.Health
	overlay Overlay

	// Sub-views.
	statusBar status.Model
	dashboard dashboard.Model
	vehicles  vehicles.Model
	log       logview.Model
	info      info.Model

	connected bool
}

// New creates the root model.
func New(ws *client.WSClient, http *client.HTTPClient) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:        ws,
		http:      http,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		statusBar: status.New(),
		dashboard: dashboard.New(),
		vehicles:  vehicles.New(),
		log:       logview.New(),
		info:      info.New(),
	}
}

// Init starts the WebSocket connection.
func (m Model) Init() tea.Cmd {
	return m.ws.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		m.vehicles.Width = msg.Width
		m.help.Width = msg.Width
		m.info.Prepare(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.statusBar.Notice = ""
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		return m, m.ws.Listen(m.ctx)

	case client.WSUpdateMsg:
		m.statusBar.Seq = msg.Seq
		cmd := m.applySnapshot(msg.Snapshot)
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), cmd)

	// HTTP results arrive alongside the running read loop and must not
	// start another one.
	case client.StateMsg:
		if msg.Err != nil {
			m.statusBar.Notice = "refresh failed: " + msg.Err.Error()
			return m, nil
		}
		m.statusBar.Notice = ""
		return m, m.applySnapshot(msg.Snapshot)

	case client.HealthMsg:
		if msg.Err != nil {
			m.statusBar.Notice = "health failed: " + msg.Err.Error()
			return m, nil
		}
		h := msg.Health
		m.health = &h
		return m, nil

	case client.ResetMsg:
		if msg.Err != nil {
			m.statusBar.Notice = "reset failed: " + msg.Err.Error()
			return m, nil
		}
		m.statusBar.Notice = msg.Msg
		return m, nil

	case dashboard.FrameMsg:
		return m, m.dashboard.Tick()
	}

	return m, nil
}

func (m *Model) applySnapshot(s lot.Snapshot) tea.Cmd {
	m.snap = s
	m.statusBar.Name = s.Config.Name
	m.statusBar.SetCounts(s.AvailableSlots, s.TotalSlots)
	m.vehicles.SetVehicles(s.Vehicles)
	m.log.SetEntries(s.Log)
	m.info.SetInfo(s.Config)
	if m.width > 0 {
		m.info.Prepare(m.width)
	}
	return m.dashboard.SetSnapshot(s)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		if key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.log.ScrollDown(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.log.ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Info):
		m.overlay = OverlayInfo
		return m, nil

	case key.Matches(msg, m.keys.Health):
		m.overlay = OverlayHealth
		if m.http == nil {
			return m, nil
		}
		return m, m.http.FetchHealth()

	case key.Matches(msg, m.keys.Refresh):
		if m.http == nil {
			return m, nil
		}
		m.statusBar.Notice = "refreshing..."
		return m, m.http.FetchState()

	case key.Matches(msg, m.keys.Reset):
		if m.http == nil {
			return m, nil
		}
		return m, m.http.ResetLot()
	}

	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{m.statusBar.View()}
	if !m.connected {
		sections = append(sections, m.renderDisconnected())
	}

	switch m.overlay {
	case OverlayInfo:
		sections = append(sections, m.info.View(m.width))
	case OverlayHealth:
		sections = append(sections, m.renderHealth())
	default:
		top := lipgloss.JoinVertical(lipgloss.Left,
			m.dashboard.View(),
			"",
			m.vehicles.View(),
		)
		sections = append(sections, top)
		used := lipgloss.Height(strings.Join(sections, "\n")) + 4
		sections = append(sections, m.log.View(m.width, max(minLogLines, m.height-used)))
	}

	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderDisconnected() string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorDanger).
		Bold(true).
		Padding(0, 1).
		Render("DISCONNECTED  Reconnecting to server...")
}

func (m Model) renderHealth() string {
	title := theme.StyleHeader.Render(" SERVER HEALTH ")
	var body []string
	if m.health == nil {
		body = append(body, theme.StyleDimmed.Render("Loading..."))
	} else {
		h := m.health
		uptime := (time.Duration(h.Uptime) * time.Second).Round(time.Second)
		body = append(body,
			fmt.Sprintf("Status:      %s", h.Status),
			fmt.Sprintf("Checked:     %s", h.Timestamp),
			fmt.Sprintf("Uptime:      %s", uptime),
			fmt.Sprintf("Vehicles:    %d", h.Vehicles),
			fmt.Sprintf("Available:   %d", h.Available),
			fmt.Sprintf("Subscribers: %d", h.Subscribers),
		)
		if len(h.Process) > 0 {
			body = append(body, "Process:     "+string(h.Process))
		}
		if len(h.Ingest) > 0 && string(h.Ingest) != "null" {
			body = append(body, "Ingest:      "+string(h.Ingest))
		}
	}
	body = append(body, "", theme.StyleDimmed.Render("esc:close"))

	width := m.width - 4
	if width < 30 {
		width = 30
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title, ""}, body...)...))
}
