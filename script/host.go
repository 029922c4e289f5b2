package script

import "time"

// Host provides the bridge between Engine and the rest of the system.
// This abstraction decouples Engine from specific implementations,
// making it testable without full infrastructure.
type Host interface {
	// IO
	Print(text string)
	Send(data string)

	// System / Lifecycle
	Quit()
	Connect(addr string)
	Disconnect()
	Reload()
	Load(path string)

	// UI
	SetStatus(text string)

	// GMCPValue reads a dot-path from the session's GMCP store.
	GMCPValue(path string) (any, bool)

	// Timers - Timer service owns IDs, scheduling, and cancellation
	TimerAfter(d time.Duration) int
	TimerEvery(d time.Duration) int
	TimerCancel(id int)
	TimerCancelAll()
}
