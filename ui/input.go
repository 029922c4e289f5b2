package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// commandPrompt handles text input. It is a dumb text box; history
// navigation and completion logic belong in the parent Model.
type commandPrompt struct {
	textinput textinput.Model
	width     int
}

func newCommandPrompt() commandPrompt {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Width = 80
	ti.Focus()
	ti.ShowSuggestions = true

	return commandPrompt{textinput: ti}
}

func (m *commandPrompt) SetWidth(w int) {
	m.width = w
	m.textinput.Width = w - 2 // Account for prompt
}

func (m *commandPrompt) Value() string {
	return m.textinput.Value()
}

func (m *commandPrompt) SetValue(s string) {
	m.textinput.SetValue(s)
}

func (m *commandPrompt) CursorEnd() {
	m.textinput.CursorEnd()
}

func (m *commandPrompt) Position() int {
	return m.textinput.Position()
}

func (m *commandPrompt) SetCursor(pos int) {
	m.textinput.SetCursor(pos)
}

func (m *commandPrompt) SetSuggestions(suggestions []string) {
	m.textinput.SetSuggestions(suggestions)
}

func (m *commandPrompt) Reset() {
	m.textinput.SetValue("")
	m.textinput.SetSuggestions(nil)
}

func (m *commandPrompt) Update(msg tea.Msg) (*commandPrompt, tea.Cmd) {
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m *commandPrompt) View() string {
	return m.textinput.View()
}
