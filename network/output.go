package network

import "bytes"

// TelnetMode describes how the server terminates prompts.
type TelnetMode int

const (
	// TelnetModeUnterminated means the server never marks prompts; any
	// partial line in the buffer is treated as a candidate prompt.
	TelnetModeUnterminated TelnetMode = iota
	// TelnetModeTerminatedPrompt means the server marks prompts with
	// GA or EOR, so partial lines are left buffered until the marker.
	TelnetModeTerminatedPrompt
)

// OutputBuffer assembles raw stream data into complete lines and tracks
// the trailing partial line as a prompt candidate. Lines may end in
// \r\n, \n or \n\r; terminators split across reads are handled.
type OutputBuffer struct {
	mode   TelnetMode
	buf    bytes.Buffer
	hasNew bool
	skip   byte // second terminator byte to swallow if it arrives next
}

// NewOutputBuffer creates a buffer operating in the given mode.
func NewOutputBuffer(mode TelnetMode) *OutputBuffer {
	return &OutputBuffer{mode: mode}
}

// SetMode switches the prompt termination mode. Called when EOR or SGA
// negotiation changes mid-session.
func (ob *OutputBuffer) SetMode(mode TelnetMode) {
	ob.mode = mode
}

// Mode returns the current termination mode.
func (ob *OutputBuffer) Mode() TelnetMode {
	return ob.mode
}

// Receive appends stream data and returns any complete lines.
func (ob *OutputBuffer) Receive(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	i := 0
	if ob.skip != 0 {
		if data[0] == ob.skip {
			i = 1
		}
		ob.skip = 0
	}
	if i >= len(data) {
		return nil
	}
	ob.hasNew = true

	var lines []string
	for ; i < len(data); i++ {
		b := data[i]
		switch b {
		case '\n', '\r':
			lines = append(lines, ob.buf.String())
			ob.buf.Reset()
			// \r\n and \n\r are a single break.
			var pair byte = '\r'
			if b == '\r' {
				pair = '\n'
			}
			if i+1 < len(data) {
				if data[i+1] == pair {
					i++
				}
			} else {
				ob.skip = pair
			}
		default:
			ob.buf.WriteByte(b)
		}
	}
	return lines
}

// Prompt returns the buffered partial line. When consume is true the
// buffer is cleared and the new-data flag reset.
func (ob *OutputBuffer) Prompt(consume bool) string {
	result := ob.buf.String()
	if consume {
		ob.buf.Reset()
		ob.hasNew = false
	}
	return result
}

// HasNewData reports whether data arrived since the prompt was last
// consumed.
func (ob *OutputBuffer) HasNewData() bool {
	return ob.hasNew
}

// InputSent notifies the buffer that user input went out. In
// unterminated mode the server reprints the prompt after echoing input,
// so the stale candidate is dropped.
func (ob *OutputBuffer) InputSent() {
	if ob.mode == TelnetModeUnterminated {
		ob.Clear()
	}
}

// Len returns the number of buffered partial-line bytes.
func (ob *OutputBuffer) Len() int {
	return ob.buf.Len()
}

// Clear drops all buffered data.
func (ob *OutputBuffer) Clear() {
	ob.buf.Reset()
	ob.hasNew = false
	ob.skip = 0
}
