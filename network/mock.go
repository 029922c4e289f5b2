package network

import (
	"context"
	"sync"
)

// MockNetwork implements Network for tests.
// It never closes Output() to mirror TCPClient behavior.
type MockNetwork struct {
	outputChan chan Output

	mu        sync.Mutex
	connected bool
	sent      []string
}

// NewMockNetwork creates a new mock network.
func NewMockNetwork() *MockNetwork {
	return &MockNetwork{
		outputChan: make(chan Output, 100),
	}
}

// Connect simulates connecting to a server.
func (m *MockNetwork) Connect(_ context.Context, address string) error {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()

	m.outputChan <- Output{
		Kind:    OutputLine,
		Payload: "[Mock Server] Connected to " + address,
	}
	return nil
}

// Disconnect marks the mock as disconnected and, like TCPClient, emits
// an OutputDisconnect so the session resets (channel remains open).
func (m *MockNetwork) Disconnect() {
	m.mu.Lock()
	wasConnected := m.connected
	m.connected = false
	m.mu.Unlock()

	if wasConnected {
		m.outputChan <- Output{Kind: OutputDisconnect}
	}
}

// Send records the command and echoes it back as server output.
func (m *MockNetwork) Send(data string) error {
	m.mu.Lock()
	m.sent = append(m.sent, data)
	m.mu.Unlock()

	m.outputChan <- Output{
		Kind:    OutputLine,
		Payload: "[Server Echo] " + data,
	}
	return nil
}

// Output returns the channel for receiving server events.
func (m *MockNetwork) Output() <-chan Output {
	return m.outputChan
}

// IsConnected reports the simulated connection state.
func (m *MockNetwork) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// LocalEchoEnabled always reports true for the mock.
func (m *MockNetwork) LocalEchoEnabled() bool {
	return true
}

// Inject pushes an arbitrary output event, letting tests simulate
// server lines, prompts, GMCP messages and disconnects.
func (m *MockNetwork) Inject(out Output) {
	m.outputChan <- out
}

// Sent returns a copy of every command passed to Send.
func (m *MockNetwork) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
