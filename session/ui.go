package session

import (
	"github.com/drake/ember/gauge"
	"github.com/drake/ember/text"
)

// Pane identifies a display target for completed lines.
type Pane int

const (
	PaneOutput Pane = iota // main game scrollback
	PaneChat               // chat channel traffic
)

// UI is the terminal layer the session drives. All methods other than
// Run may be called from the session goroutine at any time; the UI is
// responsible for handing work off to its own event loop.
type UI interface {
	// Run starts the UI and blocks until it exits.
	Run() error
	// Quit requests the UI to exit.
	Quit()
	// Input streams user-submitted lines.
	Input() <-chan string

	// Append adds a completed line to a pane's scrollback.
	Append(pane Pane, line text.Line)
	// ShowPrompt replaces the prompt overlay. An empty line clears it.
	ShowPrompt(line text.Line)

	// SetGauges replaces the gauge bar contents.
	SetGauges(readings []gauge.Reading)
	// SetStatus sets script-controlled status bar text.
	SetStatus(text string)
	// SetConnectionState updates the status bar connection indicator.
	SetConnectionState(connected bool, addr string)
}
