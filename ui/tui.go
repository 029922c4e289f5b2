// Package ui is the Bubble Tea terminal layer. It receives styled lines
// and gauge readings from the session and owns everything about how
// they are presented.
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/ember/gauge"
	"github.com/drake/ember/history"
	"github.com/drake/ember/internal/buffer"
	"github.com/drake/ember/session"
	"github.com/drake/ember/text"
)

// Ensure BubbleTeaUI satisfies the session's UI surface.
var _ session.UI = (*BubbleTeaUI)(nil)

// msgQueueLimit caps the pending-message queue. Only reachable if the
// terminal stops consuming entirely; oldest messages are shed first.
const msgQueueLimit = 65536

// Config sizes the display buffers.
type Config struct {
	OutputLines int
	ChatLines   int
	History     *history.Manager
}

// BubbleTeaUI implements session.UI on top of Bubble Tea's
// model/update/view loop. Session-side calls push into a growable queue
// that a dedicated goroutine drains into the program, so output arriving
// before the program starts (or while it is repainting) is never lost.
type BubbleTeaUI struct {
	program   *tea.Program
	inputChan chan string
	cfg       Config

	// Growable delivery queue between the session and the program
	msgIn  chan<- tea.Msg
	msgOut <-chan tea.Msg

	// Synchronization for startup
	ready     chan struct{}
	readyOnce sync.Once

	// Shutdown coordination
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a new Bubble Tea-based UI.
func New(cfg Config) *BubbleTeaUI {
	msgIn, msgOut := buffer.Unbounded[tea.Msg](256, msgQueueLimit, nil)

	return &BubbleTeaUI{
		inputChan: make(chan string, 100),
		cfg:       cfg,
		msgIn:     msgIn,
		msgOut:    msgOut,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// send queues a message for the program. Messages queued before Run are
// held until the drain goroutine starts.
func (b *BubbleTeaUI) send(msg tea.Msg) {
	select {
	case b.msgIn <- msg:
	case <-b.done:
	}
}

// Run implements session.UI. It starts the TUI and blocks until exit.
func (b *BubbleTeaUI) Run() error {
	model := NewModel(b.inputChan, b.cfg.History, b.cfg.OutputLines, b.cfg.ChatLines)

	b.program = tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInputTTY(),
	)

	// Drain the queue into the program, including anything that arrived
	// before this point.
	go func() {
		for {
			select {
			case <-b.done:
				return
			case msg := <-b.msgOut:
				b.program.Send(msg)
			}
		}
	}()

	b.readyOnce.Do(func() {
		close(b.ready)
	})

	_, err := b.program.Run()

	b.doneOnce.Do(func() {
		close(b.done)
	})

	return err
}

// Done returns a channel that closes when the UI exits.
func (b *BubbleTeaUI) Done() <-chan struct{} {
	return b.done
}

// Quit implements session.UI.
func (b *BubbleTeaUI) Quit() {
	select {
	case <-b.ready:
		if b.program != nil {
			b.program.Quit()
		}
	default:
		b.doneOnce.Do(func() {
			close(b.done)
		})
	}
}

// Input implements session.UI.
func (b *BubbleTeaUI) Input() <-chan string {
	return b.inputChan
}

// Append implements session.UI.
func (b *BubbleTeaUI) Append(pane session.Pane, line text.Line) {
	b.send(appendMsg{Pane: pane, Line: line})
}

// ShowPrompt implements session.UI.
func (b *BubbleTeaUI) ShowPrompt(line text.Line) {
	b.send(promptMsg{Line: line})
}

// SetGauges implements session.UI.
func (b *BubbleTeaUI) SetGauges(readings []gauge.Reading) {
	b.send(gaugesMsg(readings))
}

// SetStatus implements session.UI.
func (b *BubbleTeaUI) SetStatus(text string) {
	b.send(statusTextMsg(text))
}

// SetConnectionState implements session.UI.
func (b *BubbleTeaUI) SetConnectionState(connected bool, addr string) {
	b.send(connStateMsg{Connected: connected, Address: addr})
}
