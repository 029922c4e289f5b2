package event

// Type identifies the source of the message
type Type int

const (
	UserInput Type = iota
	SystemControl
	AsyncResult // Async work completion dispatched onto the session loop
)

// Control action constants
const (
	ActionQuit       = "quit"
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionReload     = "reload"
	ActionLoadScript = "load_script"
)

// ControlOp contains control operation details
type ControlOp struct {
	Action     string // Use Action* constants
	Address    string
	ScriptPath string
}

// Event is the universal packet sent to the session loop. Server output
// travels on its own channel; these events carry everything user- or
// timer-originated.
type Event struct {
	Type     Type
	Payload  string    // For user input text
	Callback func()    // For timers and async results (script closures)
	Control  ControlOp // For SystemControl events
}
