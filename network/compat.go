package network

// Option support is tracked per direction. Local means we are willing to
// enable the option on our side, Remote means we accept the server
// enabling it. The State flags record what has actually been negotiated.
const (
	bitLocal       byte = 1 << 0
	bitRemote      byte = 1 << 1
	bitLocalState  byte = 1 << 2
	bitRemoteState byte = 1 << 3
)

// CompatibilityEntry describes support and negotiated state for one
// telnet option.
type CompatibilityEntry struct {
	Local       bool
	Remote      bool
	LocalState  bool
	RemoteState bool
}

func (e CompatibilityEntry) toU8() byte {
	var b byte
	if e.Local {
		b |= bitLocal
	}
	if e.Remote {
		b |= bitRemote
	}
	if e.LocalState {
		b |= bitLocalState
	}
	if e.RemoteState {
		b |= bitRemoteState
	}
	return b
}

func entryFromU8(b byte) CompatibilityEntry {
	return CompatibilityEntry{
		Local:       b&bitLocal != 0,
		Remote:      b&bitRemote != 0,
		LocalState:  b&bitLocalState != 0,
		RemoteState: b&bitRemoteState != 0,
	}
}

// CompatibilityTable holds the support/state entry for every telnet
// option code.
type CompatibilityTable struct {
	entries [256]byte
}

// NewCompatibilityTable returns a table with no options supported.
func NewCompatibilityTable() CompatibilityTable {
	return CompatibilityTable{}
}

// FromOptions builds a table from (option, packed entry) pairs.
func FromOptions(options [][2]byte) CompatibilityTable {
	var t CompatibilityTable
	for _, pair := range options {
		t.entries[pair[0]] = pair[1]
	}
	return t
}

// Get returns the entry for an option.
func (t *CompatibilityTable) Get(opt byte) CompatibilityEntry {
	return entryFromU8(t.entries[opt])
}

// Set stores the entry for an option.
func (t *CompatibilityTable) Set(opt byte, entry CompatibilityEntry) {
	t.entries[opt] = entry.toU8()
}

// SupportLocal marks an option as supported on our side.
func (t *CompatibilityTable) SupportLocal(opt byte) {
	entry := t.Get(opt)
	entry.Local = true
	t.Set(opt, entry)
}

// SupportRemote marks an option as acceptable from the server.
func (t *CompatibilityTable) SupportRemote(opt byte) {
	entry := t.Get(opt)
	entry.Remote = true
	t.Set(opt, entry)
}

// ResetStates clears negotiated state on every option while preserving
// the support flags. Called when a connection is torn down.
func (t *CompatibilityTable) ResetStates() {
	for i := range t.entries {
		t.entries[i] &= bitLocal | bitRemote
	}
}

// DefaultCompatibility returns the option set a MUD client negotiates:
// we answer window-size and terminal-type queries, and accept the
// server driving echo, prompt markers, GMCP and compression.
func DefaultCompatibility() CompatibilityTable {
	var t CompatibilityTable
	t.SupportLocal(OptNAWS)
	t.SupportLocal(OptTType)
	t.SupportRemote(OptEcho)
	t.SupportRemote(OptSGA)
	t.SupportRemote(OptEOR)
	t.SupportRemote(OptLinemode)
	t.SupportRemote(OptGMCP)
	t.SupportRemote(OptMCCP2)
	return t
}
