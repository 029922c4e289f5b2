package session

import (
	"github.com/drake/ember/gmcp"
	"github.com/drake/ember/network"
	"github.com/drake/ember/text"
)

var (
	chatChannelStyle = text.Style{Fg: text.Named(text.Cyan), Bold: true}
	chatPlayerStyle  = text.Style{Fg: text.Named(text.BrightCyan)}
)

// handleOutput routes one network output item through the decode
// pipeline. Runs on the session goroutine.
func (s *Session) handleOutput(out network.Output) {
	switch out.Kind {
	case network.OutputLine:
		s.handleLine(out.Payload)
	case network.OutputPrompt:
		s.handlePrompt(out.Payload)
	case network.OutputGMCP:
		s.handleGMCP(out.Name, out.Body)
	case network.OutputDisconnect:
		s.handleDisconnect()
	}
}

// handleLine scans one terminated server line into styled spans, runs
// triggers against the clean text, and displays it unless gagged.
// MXP markup is stripped before scanning, matching what MUD servers
// send to clients that never negotiated MXP.
func (s *Session) handleLine(payload string) {
	payload = text.StripMXP(payload)

	raw := make([]byte, 0, len(payload)+1)
	raw = append(raw, payload...)
	raw = append(raw, '\n')

	for _, line := range s.builder.Feed(s.scanner.Scan(raw)) {
		if s.engine.OnLine(line.Text()) {
			s.ui.Append(PaneOutput, line)
		}
	}

	// A server line ends the overlay prompt
	s.lastPrompt = text.Line{}
	s.ui.ShowPrompt(text.Line{})
}

// handlePrompt scans an unterminated fragment and displays it as the
// prompt overlay. The previous prompt, if any, is committed to
// scrollback first so the transcript stays complete.
func (s *Session) handlePrompt(payload string) {
	s.commitPrompt()
	payload = text.StripMXP(payload)

	for _, line := range s.builder.Feed(s.scanner.Scan([]byte(payload))) {
		if s.engine.OnLine(line.Text()) {
			s.ui.Append(PaneOutput, line)
		}
	}
	prompt := s.builder.Flush()

	if modified := s.engine.OnPrompt(prompt.Text()); modified != prompt.Text() {
		prompt = text.PlainLine(modified)
	}

	s.lastPrompt = prompt
	s.ui.ShowPrompt(prompt)
}

// commitPrompt moves the current overlay prompt into scrollback.
func (s *Session) commitPrompt() {
	if len(s.lastPrompt.Spans) == 0 {
		return
	}
	s.ui.Append(PaneOutput, s.lastPrompt)
	s.lastPrompt = text.Line{}
	s.ui.ShowPrompt(text.Line{})
}

// handleGMCP decodes one out-of-band message and applies it. Chat
// traffic goes to the chat pane; status packages feed the vitals model;
// everything else is retained in the store for script access.
func (s *Session) handleGMCP(name string, body []byte) {
	s.store.Update(name, body)

	ev, err := gmcp.Decode(name, body)
	if err != nil {
		s.gmcpErrors.Add(1)
		return
	}

	switch e := ev.(type) {
	case gmcp.ChatMessage:
		s.ui.Append(PaneChat, chatLine(e))
		s.engine.CallHook("chat", e.Channel, e.Player, e.Text)

	case gmcp.VitalsUpdate, gmcp.MaxStatsUpdate, gmcp.StatusFlags:
		if rejected := s.vitals.Apply(ev); len(rejected) > 0 {
			s.gmcpErrors.Add(uint64(len(rejected)))
		}
		s.pushVitals()
	}
}

// pushVitals publishes the current vitals model to the UI and scripts.
func (s *Session) pushVitals() {
	snap := s.vitals.Snapshot()
	s.ui.SetGauges(s.thresholds.Readings(snap, s.config.GaugeStats))
	s.engine.OnVitals(snap.Stats, snap.Flags)
}

// handleDisconnect flushes trailing output and resets per-connection
// state so a later reconnect starts clean.
func (s *Session) handleDisconnect() {
	if trailing := s.builder.Flush(); len(trailing.Spans) > 0 {
		s.ui.Append(PaneOutput, trailing)
	}
	s.resetPipeline()
	s.ui.SetConnectionState(false, "")
	s.systemLine("Disconnected.")
	s.engine.CallHook("disconnected")
}

// resetPipeline restores decode state to its initial condition. Called
// on disconnect and before a new connection starts streaming.
func (s *Session) resetPipeline() {
	s.scanner.Reset()
	s.builder.Reset()
	s.vitals.Reset()
	s.store.Reset()
	s.lastPrompt = text.Line{}
	s.ui.ShowPrompt(text.Line{})
	s.ui.SetGauges(nil)
}

func chatLine(m gmcp.ChatMessage) text.Line {
	spans := []text.Span{
		{Text: "[" + m.Channel + "] ", Style: chatChannelStyle},
	}
	if m.Player != "" {
		spans = append(spans, text.Span{Text: m.Player + ": ", Style: chatPlayerStyle})
	}
	spans = append(spans, text.Span{Text: m.Text})
	return text.Line{Spans: spans}
}
