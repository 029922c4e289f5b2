package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/drake/ember/text"
)

// statusBar displays connection state, scroll mode, and the clock.
type statusBar struct {
	// Script-driven text (if set, overrides connection display)
	scriptText string

	connected  bool
	serverAddr string

	scrollMode ScrollMode
	newLines   int
	width      int
	styles     Styles
}

func newStatusBar(styles Styles) statusBar {
	return statusBar{styles: styles}
}

func (s *statusBar) SetWidth(w int) {
	s.width = w
}

func (s *statusBar) SetText(text string) {
	s.scriptText = text
}

func (s *statusBar) SetConnectionState(connected bool, addr string) {
	s.connected = connected
	s.serverAddr = addr
}

func (s *statusBar) SetScrollMode(mode ScrollMode, newLines int) {
	s.scrollMode = mode
	s.newLines = newLines
}

// View renders the status bar: connection on the left, scroll mode and
// clock on the right.
func (s *statusBar) View(now time.Time) string {
	var left string
	switch {
	case s.scriptText != "":
		left = s.scriptText
	case s.connected:
		left = s.styles.StatusConnected.Render("● " + s.serverAddr)
	default:
		left = s.styles.StatusDisconnected.Render("● Disconnected")
	}

	var mode string
	switch s.scrollMode {
	case ModeLive:
		mode = s.styles.StatusLive.Render("LIVE")
	case ModeScrolled:
		if s.newLines > 0 {
			mode = s.styles.StatusScrolled.Render(fmt.Sprintf("SCROLLED (%d new)", s.newLines))
		} else {
			mode = s.styles.StatusScrolled.Render("SCROLLED")
		}
	}
	right := mode + " " + s.styles.StatusClock.Render(now.Format("15:04"))

	padding := s.width - text.VisibleLen(left) - text.VisibleLen(right) - 2
	if padding < 1 {
		padding = 1
	}

	return left + strings.Repeat(" ", padding) + right
}
