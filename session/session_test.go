package session

import (
	"context"
	"strings"
	"testing"

	"github.com/drake/ember/event"
	"github.com/drake/ember/gauge"
	"github.com/drake/ember/network"
	"github.com/drake/ember/text"
)

// mockUI records everything the session pushes at it. Tests drive the
// session handlers directly, so no locking is needed.
type mockUI struct {
	inputChan chan string

	output  []text.Line
	chat    []text.Line
	prompts []text.Line
	gauges  [][]gauge.Reading
	status  []string

	connected bool
	addr      string
	quit      bool
}

func newMockUI() *mockUI {
	return &mockUI{inputChan: make(chan string, 16)}
}

func (m *mockUI) Run() error           { return nil }
func (m *mockUI) Quit()                { m.quit = true }
func (m *mockUI) Input() <-chan string { return m.inputChan }

func (m *mockUI) ShowPrompt(l text.Line) {
	m.prompts = append(m.prompts, l)
}
func (m *mockUI) Append(pane Pane, l text.Line) {
	if pane == PaneChat {
		m.chat = append(m.chat, l)
		return
	}
	m.output = append(m.output, l)
}
func (m *mockUI) SetGauges(r []gauge.Reading) { m.gauges = append(m.gauges, r) }
func (m *mockUI) SetStatus(s string)          { m.status = append(m.status, s) }
func (m *mockUI) SetConnectionState(c bool, addr string) {
	m.connected = c
	m.addr = addr
}

func (m *mockUI) outputTexts() []string {
	texts := make([]string, len(m.output))
	for i, l := range m.output {
		texts[i] = l.Text()
	}
	return texts
}

func newTestSession(t *testing.T, cfg Config) (*Session, *network.MockNetwork, *mockUI) {
	t.Helper()
	net := network.NewMockNetwork()
	ui := newMockUI()
	if cfg.GaugeStats == nil {
		cfg.GaugeStats = []string{"hp", "mana"}
	}
	s := New(net, ui, cfg)
	if err := s.engine.Init(); err != nil {
		t.Fatalf("engine init: %v", err)
	}
	t.Cleanup(s.engine.Close)
	return s, net, ui
}

func TestServerLineStyled(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	s.handleOutput(network.Output{Kind: network.OutputLine, Payload: "\x1b[31mA troll\x1b[0m arrives."})

	if len(ui.output) != 1 {
		t.Fatalf("got %d lines, want 1", len(ui.output))
	}
	line := ui.output[0]
	if line.Text() != "A troll arrives." {
		t.Errorf("text = %q", line.Text())
	}
	if len(line.Spans) < 2 {
		t.Fatalf("spans = %d, want >= 2", len(line.Spans))
	}
	if line.Spans[0].Style.Fg != text.Named(text.Red) {
		t.Errorf("first span style = %+v, want red fg", line.Spans[0].Style)
	}
}

func TestServerLineClearsPrompt(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	s.handleOutput(network.Output{Kind: network.OutputPrompt, Payload: "HP:10> "})
	s.handleOutput(network.Output{Kind: network.OutputLine, Payload: "You rest."})

	last := ui.prompts[len(ui.prompts)-1]
	if len(last.Spans) != 0 {
		t.Errorf("prompt not cleared after line: %q", last.Text())
	}
}

func TestMXPTagsStripped(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	s.handleOutput(network.Output{Kind: network.OutputLine, Payload: "You see <MXP>a ruby amulet</MXP> here."})
	s.handleOutput(network.Output{Kind: network.OutputPrompt, Payload: "<MXP>HP:10></MXP> "})

	if got := ui.output[0].Text(); got != "You see a ruby amulet here." {
		t.Errorf("line = %q", got)
	}
	last := ui.prompts[len(ui.prompts)-1]
	if last.Text() != "HP:10> " {
		t.Errorf("prompt = %q", last.Text())
	}
}

func TestPromptCommittedWhenReplaced(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	s.handleOutput(network.Output{Kind: network.OutputPrompt, Payload: "HP:10> "})
	s.handleOutput(network.Output{Kind: network.OutputPrompt, Payload: "HP:12> "})

	texts := ui.outputTexts()
	if len(texts) != 1 || texts[0] != "HP:10> " {
		t.Fatalf("scrollback = %v, want committed first prompt", texts)
	}
	last := ui.prompts[len(ui.prompts)-1]
	if last.Text() != "HP:12> " {
		t.Errorf("shown prompt = %q", last.Text())
	}
}

func TestTriggerGagsLine(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	code := `ember.trigger("noise", function() return false end)`
	if err := s.engine.DoString("test", code); err != nil {
		t.Fatalf("DoString: %v", err)
	}

	s.handleOutput(network.Output{Kind: network.OutputLine, Payload: "some noise here"})
	s.handleOutput(network.Output{Kind: network.OutputLine, Payload: "a quiet line"})

	texts := ui.outputTexts()
	if len(texts) != 1 || texts[0] != "a quiet line" {
		t.Errorf("scrollback = %v, want gagged noise", texts)
	}
}

func TestGMCPVitalsDriveGauges(t *testing.T) {
	s, _, ui := newTestSession(t, Config{GaugeStats: []string{"hp"}})

	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.maxstats", Body: []byte(`{"maxhp":100}`)})
	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.vitals", Body: []byte(`{"hp":50}`)})

	if len(ui.gauges) == 0 {
		t.Fatal("no gauge updates")
	}
	last := ui.gauges[len(ui.gauges)-1]
	if len(last) != 1 {
		t.Fatalf("gauges = %d, want 1", len(last))
	}
	g := last[0]
	if g.Name != "hp" || g.Current != 50 || g.Max != 100 {
		t.Errorf("gauge = %+v", g)
	}
	if g.Band != gauge.BandMid {
		t.Errorf("band = %v, want BandMid", g.Band)
	}
}

func TestGMCPPercentConvention(t *testing.T) {
	s, _, ui := newTestSession(t, Config{VitalsPercent: true, GaugeStats: []string{"hp"}})

	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.maxstats", Body: []byte(`{"maxhp":200}`)})
	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.vitals", Body: []byte(`{"hp":25}`)})

	last := ui.gauges[len(ui.gauges)-1]
	if last[0].Current != 50 {
		t.Errorf("current = %d, want 50 (25%% of 200)", last[0].Current)
	}
}

func TestGMCPChatRouted(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	body := []byte(`{"chan":"gossip","player":"Alba","msg":"hi all"}`)
	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "comm.channel", Body: body})

	if len(ui.output) != 0 {
		t.Errorf("chat leaked into main scrollback: %v", ui.outputTexts())
	}
	if len(ui.chat) != 1 {
		t.Fatalf("chat lines = %d, want 1", len(ui.chat))
	}
	got := ui.chat[0].Text()
	if got != "[gossip] Alba: hi all" {
		t.Errorf("chat line = %q", got)
	}
}

func TestGMCPDecodeErrorCounted(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.vitals", Body: []byte(`not json`)})

	if len(ui.output) != 0 || len(ui.gauges) != 0 {
		t.Error("malformed payload should not reach the UI")
	}
	if s.Stats().GMCPErrors != 1 {
		t.Errorf("GMCPErrors = %d, want 1", s.Stats().GMCPErrors)
	}
}

func TestDisconnectResetsState(t *testing.T) {
	s, _, ui := newTestSession(t, Config{GaugeStats: []string{"hp"}})

	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.maxstats", Body: []byte(`{"maxhp":100}`)})
	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.vitals", Body: []byte(`{"hp":80}`)})
	s.handleOutput(network.Output{Kind: network.OutputDisconnect})

	texts := ui.outputTexts()
	found := false
	for _, txt := range texts {
		if strings.Contains(txt, "Disconnected") {
			found = true
		}
	}
	if !found {
		t.Errorf("no disconnect notice in %v", texts)
	}

	last := ui.gauges[len(ui.gauges)-1]
	if last != nil {
		t.Errorf("gauges not cleared: %v", last)
	}
	if _, ok := s.vitals.Stat("hp"); ok {
		t.Error("vitals survived disconnect")
	}
	if _, ok := s.store.Get("char.vitals.hp"); ok {
		t.Error("store survived disconnect")
	}
}

func TestExplicitDisconnectResetsSession(t *testing.T) {
	s, net, ui := newTestSession(t, Config{GaugeStats: []string{"hp"}})

	if err := net.Connect(context.Background(), "mud.example.org:4000"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	s.handleOutput(<-net.Output()) // connect banner
	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.maxstats", Body: []byte(`{"maxhp":100}`)})
	s.handleOutput(network.Output{Kind: network.OutputGMCP, Name: "char.vitals", Body: []byte(`{"hp":80}`)})

	s.Disconnect()

	select {
	case out := <-net.Output():
		s.handleOutput(out)
	default:
		t.Fatal("explicit Disconnect produced no network output")
	}

	texts := ui.outputTexts()
	if len(texts) == 0 || !strings.Contains(texts[len(texts)-1], "Disconnected") {
		t.Errorf("no disconnect notice in %v", texts)
	}
	if last := ui.gauges[len(ui.gauges)-1]; last != nil {
		t.Errorf("gauges not cleared: %v", last)
	}
	if _, ok := s.vitals.Stat("hp"); ok {
		t.Error("vitals survived explicit disconnect")
	}
}

func TestUserInputEchoedAndSent(t *testing.T) {
	s, net, ui := newTestSession(t, Config{})

	s.handleEvent(event.Event{Type: event.UserInput, Payload: "north"})

	sent := net.Sent()
	if len(sent) != 1 || sent[0] != "north" {
		t.Fatalf("sent = %v", sent)
	}
	texts := ui.outputTexts()
	if len(texts) != 1 || texts[0] != "> north" {
		t.Errorf("echo = %v", texts)
	}
}

func TestScriptConsumesInput(t *testing.T) {
	s, net, _ := newTestSession(t, Config{})

	code := `on_input = function(line) return false end`
	if err := s.engine.DoString("test", code); err != nil {
		t.Fatalf("DoString: %v", err)
	}

	s.handleEvent(event.Event{Type: event.UserInput, Payload: "secret"})

	if len(net.Sent()) != 0 {
		t.Errorf("consumed input still sent: %v", net.Sent())
	}
}

func TestControlQuitShutsDown(t *testing.T) {
	s, _, ui := newTestSession(t, Config{})

	s.handleEvent(event.Event{
		Type:    event.SystemControl,
		Control: event.ControlOp{Action: event.ActionQuit},
	})

	if !ui.quit {
		t.Error("UI not asked to quit")
	}
	select {
	case <-s.done:
	default:
		t.Error("done channel not closed")
	}
}
