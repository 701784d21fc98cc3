// ABOUTME: Bubbletea model for the player status view
// ABOUTME: Renders format, buffer fill, drift ratio and underruns with lipgloss
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 30

// Model represents the TUI state
type Model struct {
	title    string
	controls *Controls

	// Format
	requested       string
	accepted        string
	needsConversion bool
	resampler       string

	// Playback
	state     string
	occupancy int
	capacity  int
	ratio     float64
	nominal   float64
	skewPPM   float64

	// Stats
	played    uint64
	underruns uint64
	retries   uint64
	meanFill  float64
	stdFill   float64

	lastErr  string
	quitting bool

	width  int
	height int
}

// StatusMsg updates TUI state. Zero-valued fields leave the model unchanged,
// except Stats which is always applied when HasStats is set.
type StatusMsg struct {
	Requested       string
	Accepted        string
	NeedsConversion bool
	Resampler       string

	State string

	HasStats  bool
	Occupancy int
	Capacity  int
	Ratio     float64
	Nominal   float64
	SkewPPM   float64
	Played    uint64
	Underruns uint64
	Retries   uint64
	MeanFill  float64
	StdFill   float64

	Err error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down player...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	field(&b, "State:     ", m.renderState())
	field(&b, "Producer:  ", orDash(m.requested))
	field(&b, "Device:    ", orDash(m.accepted))
	if m.needsConversion {
		field(&b, "Converter: ", m.resampler)
	}
	b.WriteString("\n")

	field(&b, "Buffer:    ", fmt.Sprintf("[%s] %d/%d frames", renderBar(m.occupancy, m.capacity, barWidth), m.occupancy, m.capacity))
	field(&b, "Fill:      ", fmt.Sprintf("mean %.1f%%  stddev %.1f%%", m.meanFill*100, m.stdFill*100))
	field(&b, "Ratio:     ", fmt.Sprintf("%.6f (nominal %.6f, %+.0f ppm)", m.ratio, m.nominal, m.correctionPPM()))
	field(&b, "Skew:      ", fmt.Sprintf("%+.0f ppm", m.skewPPM))
	b.WriteString("\n")

	underruns := valueStyle.Render(fmt.Sprintf("%d", m.underruns))
	if m.underruns > 0 {
		underruns = warnStyle.Render(fmt.Sprintf("%d", m.underruns))
	}
	b.WriteString(headerStyle.Render("Stats:     "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("Played: %d  Retries: %d  Underruns: ", m.played, m.retries)))
	b.WriteString(underruns)
	b.WriteString("\n")

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Pause  s:Stop  ←/→:Skew  q:Quit"))

	return b.String()
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(headerStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func (m Model) renderState() string {
	switch m.state {
	case "playing":
		return "▶ playing"
	case "paused":
		return "⏸ paused"
	default:
		return "■ " + m.state
	}
}

func (m Model) correctionPPM() float64 {
	if m.nominal == 0 {
		return 0
	}
	return (m.ratio/m.nominal - 1) * 1e6
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.controls.send(CommandQuit)
		return m, tea.Quit
	case " ", "p":
		if m.state == "playing" {
			m.controls.send(CommandPause)
		} else {
			m.controls.send(CommandPlay)
		}
	case "s":
		m.controls.send(CommandStop)
	case "right", "+":
		m.controls.send(CommandSkewUp)
	case "left", "-":
		m.controls.send(CommandSkewDown)
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Accepted != "" {
		m.requested = msg.Requested
		m.accepted = msg.Accepted
		m.needsConversion = msg.NeedsConversion
		m.resampler = msg.Resampler
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.HasStats {
		m.occupancy = msg.Occupancy
		m.capacity = msg.Capacity
		m.ratio = msg.Ratio
		m.nominal = msg.Nominal
		m.skewPPM = msg.SkewPPM
		m.played = msg.Played
		m.underruns = msg.Underruns
		m.retries = msg.Retries
		m.meanFill = msg.MeanFill
		m.stdFill = msg.StdFill
	}
	if msg.Err != nil {
		m.lastErr = msg.Err.Error()
	}
}

// Utility functions
func renderBar(value, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(width, max(0, value*width/total))
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
