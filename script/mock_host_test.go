package script

import (
	"sync"
	"time"
)

// MockHost implements Host for engine tests, recording every call.
type MockHost struct {
	mu sync.Mutex

	sent     []string
	printed  []string
	statuses []string

	quitCalled       bool
	connectAddr      string
	disconnectCalled bool
	reloadCalled     bool
	loadedPaths      []string

	gmcpValues map[string]any

	nextTimerID  int
	timerDone    []time.Duration
	cancelled    []int
	cancelledAll int
}

func NewMockHost() *MockHost {
	return &MockHost{
		gmcpValues: make(map[string]any),
	}
}

func (m *MockHost) Print(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.printed = append(m.printed, text)
}

func (m *MockHost) Send(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
}

func (m *MockHost) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitCalled = true
}

func (m *MockHost) Connect(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectAddr = addr
}

func (m *MockHost) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalled = true
}

func (m *MockHost) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloadCalled = true
}

func (m *MockHost) Load(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadedPaths = append(m.loadedPaths, path)
}

func (m *MockHost) SetStatus(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, text)
}

func (m *MockHost) GMCPValue(path string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.gmcpValues[path]
	return val, ok
}

func (m *MockHost) TimerAfter(d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTimerID++
	m.timerDone = append(m.timerDone, d)
	return m.nextTimerID
}

func (m *MockHost) TimerEvery(d time.Duration) int {
	return m.TimerAfter(d)
}

func (m *MockHost) TimerCancel(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, id)
}

func (m *MockHost) TimerCancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelledAll++
}

// DrainSent returns and clears recorded Send calls.
func (m *MockHost) DrainSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sent
	m.sent = nil
	return out
}

// DrainPrinted returns and clears recorded Print calls.
func (m *MockHost) DrainPrinted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.printed
	m.printed = nil
	return out
}
