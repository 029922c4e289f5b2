package network

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"
)

func TestSplitGMCP(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantName string
		wantBody string
	}{
		{"NameAndBody", `Char.Vitals {"hp":100}`, "char.vitals", `{"hp":100}`},
		{"NameOnly", "Core.Ping", "core.ping", ""},
		{"ExtraWhitespace", "  Comm.Channel  {\"chan\":\"gossip\"} ", "comm.channel", `{"chan":"gossip"}`},
		{"Empty", "", "", ""},
		{"ArrayBody", `Core.Supports.Set ["Char 1"]`, "core.supports.set", `["Char 1"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, body := splitGMCP([]byte(tt.payload))
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestGMCPHandshakeFraming(t *testing.T) {
	// After the server offers GMCP, the parser state must permit
	// building the Core.Hello subnegotiation.
	parser := NewParser(DefaultCompatibility())
	events := parser.Receive([]byte{CmdIAC, CmdWILL, OptGMCP})

	var sentDO bool
	for _, ev := range events {
		if ev.Kind == TelnetEventDataSend && bytes.Equal(ev.Data, []byte{CmdIAC, CmdDO, OptGMCP}) {
			sentDO = true
		}
	}
	if !sentDO {
		t.Fatal("expected DO GMCP reply to WILL GMCP")
	}

	ev := parser.Subnegotiation(OptGMCP, []byte(helloBody))
	if ev == nil {
		t.Fatal("Subnegotiation should succeed once GMCP is negotiated")
	}
	if ev.Data[2] != OptGMCP {
		t.Errorf("subneg option = %d, want GMCP", ev.Data[2])
	}
}

func TestExplicitDisconnectEmitsEvent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(io.Discard, conn)
	}()

	c := NewTCPClient()
	if err := c.Connect(context.Background(), ln.Addr().String()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.Disconnect()

	select {
	case out := <-c.Output():
		if out.Kind != OutputDisconnect {
			t.Fatalf("Kind = %v, want OutputDisconnect", out.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no OutputDisconnect after explicit Disconnect")
	}
	if c.IsConnected() {
		t.Error("client still reports connected")
	}
}

func TestMockNetworkDisconnectEmitsEvent(t *testing.T) {
	m := NewMockNetwork()
	if err := m.Connect(context.Background(), "mud.example.org:4000"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-m.Output() // connect banner

	m.Disconnect()

	out := <-m.Output()
	if out.Kind != OutputDisconnect {
		t.Errorf("Kind = %v, want OutputDisconnect", out.Kind)
	}

	// A second Disconnect on an already-closed mock stays silent.
	m.Disconnect()
	select {
	case out := <-m.Output():
		t.Errorf("unexpected output after redundant Disconnect: %+v", out)
	default:
	}
}

func TestMockNetwork(t *testing.T) {
	m := NewMockNetwork()

	if m.IsConnected() {
		t.Error("mock should start disconnected")
	}
	if err := m.Connect(context.Background(), "mud.example.org:4000"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !m.IsConnected() {
		t.Error("mock should be connected after Connect")
	}

	<-m.Output() // connect banner

	if err := m.Send("look"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	out := <-m.Output()
	if out.Kind != OutputLine {
		t.Errorf("Kind = %v, want OutputLine", out.Kind)
	}

	m.Inject(Output{Kind: OutputGMCP, Name: "char.vitals", Body: []byte(`{"hp":10}`)})
	out = <-m.Output()
	if out.Kind != OutputGMCP || out.Name != "char.vitals" {
		t.Errorf("unexpected injected output: %+v", out)
	}

	sent := m.Sent()
	if len(sent) != 1 || sent[0] != "look" {
		t.Errorf("Sent() = %v", sent)
	}
}
