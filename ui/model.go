package ui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/ember/gauge"
	"github.com/drake/ember/history"
	"github.com/drake/ember/internal/buffer"
	"github.com/drake/ember/session"
	"github.com/drake/ember/text"
)

const chatPaneHeight = 6

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Display state
	output   *buffer.Ring
	chat     *buffer.Ring
	viewport *Viewport
	input    commandPrompt
	status   statusBar
	styles   Styles

	gauges      []gauge.Reading
	chatVisible bool

	// Input helpers
	history *history.Manager
	words   *WordCache

	// State
	width       int
	height      int
	now         time.Time
	inputChan   chan<- string
	quitting    bool
	initialized bool

	// Lines batched for the next tick
	pending []appendMsg
}

// NewModel creates a new TUI model. The history manager may be nil when
// persistence is disabled; navigation then starts empty.
func NewModel(inputChan chan<- string, hist *history.Manager, outputCap, chatCap int) Model {
	styles := DefaultStyles()
	output := buffer.NewRing(outputCap)
	chat := buffer.NewRing(chatCap)
	if hist == nil {
		hist, _ = history.NewManager(500, nil)
	}

	return Model{
		output:    output,
		chat:      chat,
		viewport:  NewViewport(output),
		input:     newCommandPrompt(),
		status:    newStatusBar(styles),
		styles:    styles,
		history:   hist,
		words:     NewWordCache(5000),
		inputChan: inputChan,
		now:       time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		doTick(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		m.initialized = true
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		if len(m.pending) > 0 {
			m.flushPending()
		}
		return m, doTick()

	case appendMsg:
		// Batch for the next tick so bursts render in one pass
		m.pending = append(m.pending, msg)
		return m, nil

	case promptMsg:
		if len(msg.Line.Spans) == 0 {
			m.viewport.SetPrompt("")
		} else {
			m.viewport.SetPrompt(text.RenderANSI(msg.Line))
		}
		return m, nil

	case gaugesMsg:
		m.gauges = []gauge.Reading(msg)
		m.updateDimensions()
		return m, nil

	case statusTextMsg:
		m.status.SetText(string(msg))
		return m, nil

	case connStateMsg:
		m.status.SetConnectionState(msg.Connected, msg.Address)
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.viewport.ScrollUp(3)
				m.syncScrollStatus()
			case tea.MouseButtonWheelDown:
				m.viewport.ScrollDown(3)
				m.syncScrollStatus()
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// flushPending moves batched lines into their rings.
func (m *Model) flushPending() {
	newOutput := 0
	for _, p := range m.pending {
		if p.Pane == session.PaneChat {
			m.chat.Append(p.Line)
			if !m.chatVisible {
				m.chatVisible = true
				m.updateDimensions()
			}
			continue
		}
		m.output.Append(p.Line)
		m.words.AddLine(p.Line.Text())
		newOutput++
	}
	m.pending = m.pending[:0]

	if newOutput > 0 {
		m.viewport.OnNewLines(newOutput)
		m.syncScrollStatus()
	}
}

func (m *Model) syncScrollStatus() {
	m.status.SetScrollMode(m.viewport.Mode(), m.viewport.NewLineCount())
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}
		m.input.Reset()
		m.history.ResetCursor()
		return m, nil

	case tea.KeyEsc:
		m.input.Reset()
		m.history.ResetCursor()
		return m, nil

	case tea.KeyEnter:
		line := m.input.Value()
		if line != "" {
			m.history.Add(line)
			m.words.AddInput(line)
		}
		// Send to session (including empty string for blank enter)
		select {
		case m.inputChan <- line:
		default:
			m.output.Append(text.StyledLine("[warning] input dropped, session lagging", warnStyle))
			m.viewport.OnNewLines(1)
		}
		m.input.Reset()
		return m, nil

	case tea.KeyUp:
		if cmd, ok := m.history.Prev(); ok {
			m.input.SetValue(cmd)
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyDown:
		if cmd, ok := m.history.Next(); ok {
			m.input.SetValue(cmd)
			m.input.CursorEnd()
		} else {
			m.input.SetValue("")
		}
		return m, nil

	case tea.KeyTab:
		m.completeWord()
		return m, nil

	case tea.KeyCtrlV:
		if pasted, err := clipboard.ReadAll(); err == nil && pasted != "" {
			m.insertAtCursor(sanitizePaste(pasted))
		}
		return m, nil

	case tea.KeyCtrlU:
		m.input.SetValue("")
		return m, nil

	case tea.KeyCtrlW:
		m.deleteWord()
		return m, nil

	case tea.KeyPgUp:
		m.viewport.PageUp()
		m.syncScrollStatus()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		m.syncScrollStatus()
		return m, nil

	case tea.KeyHome:
		m.viewport.GotoTop()
		m.syncScrollStatus()
		return m, nil

	case tea.KeyEnd:
		m.viewport.GotoBottom()
		m.syncScrollStatus()
		return m, nil

	case tea.KeyF2:
		m.chatVisible = !m.chatVisible
		m.updateDimensions()
		return m, nil
	}

	newInput, cmd := m.input.Update(msg)
	m.input = *newInput
	m.updateSuggestions()
	return m, cmd
}

var warnStyle = text.Style{Fg: text.Named(text.BrightYellow)}

// sanitizePaste flattens clipboard content to a single input line.
func sanitizePaste(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return s
}

func (m *Model) insertAtCursor(s string) {
	val := m.input.Value()
	pos := m.input.Position()
	m.input.SetValue(val[:pos] + s + val[pos:])
	m.input.SetCursor(pos + len(s))
}

// completeWord replaces the word before the cursor with the most recent
// cache match.
func (m *Model) completeWord() {
	val := m.input.Value()
	pos := m.input.Position()
	start := wordStart(val, pos)
	prefix := val[start:pos]
	if len(prefix) < 2 {
		return
	}

	matches := m.words.FindMatches(prefix)
	if len(matches) == 0 {
		return
	}

	m.input.SetValue(val[:start] + matches[0] + val[pos:])
	m.input.SetCursor(start + len(matches[0]))
}

func (m *Model) updateSuggestions() {
	val := m.input.Value()
	pos := m.input.Position()
	start := wordStart(val, pos)
	prefix := val[start:pos]
	if len(prefix) < 2 {
		m.input.SetSuggestions(nil)
		return
	}

	matches := m.words.FindMatches(prefix)
	if len(matches) == 0 {
		m.input.SetSuggestions(nil)
		return
	}

	suggestions := make([]string, 0, len(matches))
	for _, match := range matches {
		suggestions = append(suggestions, val[:start]+match)
	}
	m.input.SetSuggestions(suggestions)
}

func wordStart(val string, pos int) int {
	start := pos
	for start > 0 && val[start-1] != ' ' {
		start--
	}
	return start
}

func (m *Model) deleteWord() {
	val := m.input.Value()
	pos := m.input.Position()
	if pos == 0 {
		return
	}
	newPos := pos
	for newPos > 0 && val[newPos-1] == ' ' {
		newPos--
	}
	for newPos > 0 && val[newPos-1] != ' ' {
		newPos--
	}
	m.input.SetValue(val[:newPos] + val[pos:])
	m.input.SetCursor(newPos)
}

func (m *Model) updateDimensions() {
	m.viewport.SetDimensions(m.width, m.viewportHeight())
	m.input.SetWidth(m.width)
	m.status.SetWidth(m.width)
}

// viewportHeight is what remains after the fixed chrome: optional chat
// pane with header, separator, optional gauge bar, input, status.
func (m *Model) viewportHeight() int {
	h := m.height - 3 // separator + input + status
	if m.chatVisible {
		h -= chatPaneHeight + 1
	}
	if len(m.gauges) > 0 {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.initialized {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	var parts []string

	if m.chatVisible {
		parts = append(parts, m.renderChat())
	}

	parts = append(parts, m.viewport.View())
	parts = append(parts, m.borderLine())

	if len(m.gauges) > 0 {
		parts = append(parts, renderGauges(m.gauges, m.styles))
	}

	parts = append(parts, m.input.View())
	parts = append(parts, m.status.View(m.now))

	return strings.Join(parts, "\n")
}

// renderChat renders the chat pane: a header row plus the newest lines.
func (m Model) renderChat() string {
	header := m.styles.ChatHeader.Render(" chat ")
	if pad := m.width - text.VisibleLen(header); pad > 0 {
		header += m.styles.Muted.Render(strings.Repeat("─", pad))
	}

	rows := make([]string, 0, chatPaneHeight+1)
	rows = append(rows, header)

	newest := m.chat.Newest(chatPaneHeight)
	for pad := chatPaneHeight - len(newest); pad > 0; pad-- {
		rows = append(rows, "")
	}
	for _, line := range newest {
		rows = append(rows, text.RenderANSI(line))
	}
	return strings.Join(rows, "\n")
}

func (m Model) borderLine() string {
	return m.styles.Muted.Render(strings.Repeat("─", m.width))
}
