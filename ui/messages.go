package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/ember/gauge"
	"github.com/drake/ember/session"
	"github.com/drake/ember/text"
)

// appendMsg carries one completed line for a pane's scrollback.
type appendMsg struct {
	Pane session.Pane
	Line text.Line
}

// promptMsg replaces the prompt overlay. An empty line clears it.
type promptMsg struct {
	Line text.Line
}

// gaugesMsg replaces the gauge bar contents.
type gaugesMsg []gauge.Reading

// statusTextMsg sets script-controlled status bar text.
type statusTextMsg string

// connStateMsg updates the connection indicator.
type connStateMsg struct {
	Connected bool
	Address   string
}

// tickMsg drives line batching and the clock.
type tickMsg time.Time

// doTick returns a command that sends a tickMsg after the frame interval.
func doTick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
