package ui

import (
	"strings"

	"github.com/drake/ember/internal/buffer"
	"github.com/drake/ember/text"
)

// ScrollMode indicates whether the viewport is live or scrolled back.
type ScrollMode int

const (
	// ModeLive means the viewport is pinned to the bottom, showing newest lines.
	ModeLive ScrollMode = iota
	// ModeScrolled means the user has scrolled up and the view is locked.
	ModeScrolled
)

// Viewport renders a window into a line ring. Only visible lines are
// turned into ANSI strings, so scrollback size does not affect redraw
// cost.
type Viewport struct {
	ring       *buffer.Ring
	offset     int // Lines from bottom (0 = showing newest)
	height     int // Visible rows
	width      int // Terminal width
	mode       ScrollMode
	newLines   int // Count of new lines since scrolling back
	prompt     string
	cacheValid bool
	cachedView string
}

// NewViewport creates a viewport over the given ring.
func NewViewport(ring *buffer.Ring) *Viewport {
	return &Viewport{
		ring: ring,
		mode: ModeLive,
	}
}

// SetDimensions updates the viewport size.
func (v *Viewport) SetDimensions(width, height int) {
	if v.width != width || v.height != height {
		v.width = width
		v.height = height
		v.cacheValid = false
	}
}

// OnNewLines is called after lines are appended to the ring. In live
// mode the view stays pinned; in scrolled mode the offset grows so the
// reading position holds still.
func (v *Viewport) OnNewLines(count int) {
	switch v.mode {
	case ModeLive:
		v.cacheValid = false
	case ModeScrolled:
		v.offset += count
		v.newLines += count
		if max := v.maxOffset(); v.offset > max {
			v.offset = max
		}
		v.cacheValid = false
	}
}

// ScrollUp moves the view up (towards older lines).
func (v *Viewport) ScrollUp(lines int) {
	v.offset += lines
	if max := v.maxOffset(); v.offset > max {
		v.offset = max
	}
	if v.offset > 0 {
		v.mode = ModeScrolled
	}
	v.cacheValid = false
}

// ScrollDown moves the view down (towards newer lines).
func (v *Viewport) ScrollDown(lines int) {
	v.offset -= lines
	if v.offset <= 0 {
		v.offset = 0
		v.mode = ModeLive
		v.newLines = 0
	}
	v.cacheValid = false
}

// PageUp scrolls up by one page.
func (v *Viewport) PageUp() {
	v.ScrollUp(v.height - 1)
}

// PageDown scrolls down by one page.
func (v *Viewport) PageDown() {
	v.ScrollDown(v.height - 1)
}

// GotoBottom returns to live mode (pinned to newest lines).
func (v *Viewport) GotoBottom() {
	v.offset = 0
	v.mode = ModeLive
	v.newLines = 0
	v.cacheValid = false
}

// GotoTop scrolls to the oldest retained line.
func (v *Viewport) GotoTop() {
	v.offset = v.maxOffset()
	if v.offset > 0 {
		v.mode = ModeScrolled
	}
	v.cacheValid = false
}

// Mode returns the current scroll mode.
func (v *Viewport) Mode() ScrollMode {
	return v.mode
}

// NewLineCount returns the number of lines arrived since scrolling back.
func (v *Viewport) NewLineCount() int {
	return v.newLines
}

// SetPrompt sets the rendered server prompt shown on the bottom line in
// live mode. Empty clears it.
func (v *Viewport) SetPrompt(rendered string) {
	if v.prompt != rendered {
		v.prompt = rendered
		v.cacheValid = false
	}
}

func (v *Viewport) maxOffset() int {
	max := v.ring.Count() - v.height
	if max < 0 {
		return 0
	}
	return max
}

// View renders the visible window. Always returns exactly height rows,
// top-padded so content hugs the bottom.
func (v *Viewport) View() string {
	if v.cacheValid {
		return v.cachedView
	}

	if v.height <= 0 {
		v.cachedView = ""
		v.cacheValid = true
		return v.cachedView
	}

	hasPrompt := v.mode == ModeLive && v.prompt != ""
	contentHeight := v.height
	if hasPrompt {
		contentHeight--
	}

	total := v.ring.Count()
	end := total - v.offset
	if end > total {
		end = total
	}
	if end < 0 {
		end = 0
	}
	start := end - contentHeight
	if start < 0 {
		start = 0
	}

	rows := make([]string, 0, v.height)
	for pad := contentHeight - (end - start); pad > 0; pad-- {
		rows = append(rows, "")
	}
	for i := start; i < end; i++ {
		rows = append(rows, text.RenderANSI(v.ring.Get(i)))
	}
	if hasPrompt {
		rows = append(rows, v.prompt)
	}

	v.cachedView = strings.Join(rows, "\n")
	v.cacheValid = true
	return v.cachedView
}

// AtBottom returns true if the viewport is showing the newest lines.
func (v *Viewport) AtBottom() bool {
	return v.offset == 0
}
