package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/drake/ember/gauge"
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// Status indicators
	StatusBar          lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusLive         lipgloss.Style
	StatusScrolled     lipgloss.Style
	StatusClock        lipgloss.Style

	// Gauge bands
	GaugeLabel lipgloss.Style
	GaugeHigh  lipgloss.Style
	GaugeMid   lipgloss.Style
	GaugeLow   lipgloss.Style
	GaugeEmpty lipgloss.Style

	// Chat pane
	ChatHeader lipgloss.Style

	// Misc
	Muted   lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		StatusConnected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		StatusDisconnected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")), // Gray (subtle)
		StatusLive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		StatusScrolled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow
		StatusClock: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		GaugeLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		GaugeHigh: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Green band
		GaugeMid: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Yellow band
		GaugeLow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("167")), // Red band
		GaugeEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")),

		ChatHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
	}
}

// bandStyle maps a gauge band to its fill style.
func (s Styles) bandStyle(b gauge.Band) lipgloss.Style {
	switch b {
	case gauge.BandHigh:
		return s.GaugeHigh
	case gauge.BandMid:
		return s.GaugeMid
	default:
		return s.GaugeLow
	}
}
