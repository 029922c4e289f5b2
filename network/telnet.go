package network

// Telnet commands (RFC 854, RFC 885).
const (
	CmdIAC  byte = 255 // Interpret As Command
	CmdDONT byte = 254
	CmdDO   byte = 253
	CmdWONT byte = 252
	CmdWILL byte = 251
	CmdSB   byte = 250 // Subnegotiation Begin
	CmdGA   byte = 249 // Go Ahead
	CmdEL   byte = 248 // Erase Line
	CmdEC   byte = 247 // Erase Character
	CmdAYT  byte = 246 // Are You There
	CmdAO   byte = 245 // Abort Output
	CmdIP   byte = 244 // Interrupt Process
	CmdBRK  byte = 243 // Break
	CmdDM   byte = 242 // Data Mark
	CmdNOP  byte = 241 // No Operation
	CmdSE   byte = 240 // Subnegotiation End
	CmdEOR  byte = 239 // End of Record
)

// Telnet option codes used by MUD servers.
const (
	OptEcho     byte = 1
	OptSGA      byte = 3 // Suppress Go Ahead
	OptTType    byte = 24
	OptEOR      byte = 25
	OptNAWS     byte = 31 // Negotiate About Window Size
	OptLinemode byte = 34
	OptMCCP2    byte = 86  // Mud Client Compression Protocol v2
	OptGMCP     byte = 201 // Generic Mud Communication Protocol
)

// TelnetEventKind identifies what the parser extracted from the stream.
type TelnetEventKind int

const (
	// TelnetEventDataReceive carries application data with telnet codes
	// stripped.
	TelnetEventDataReceive TelnetEventKind = iota
	// TelnetEventDataSend carries bytes that must be written back to the
	// server (negotiation replies, outgoing subnegotiations).
	TelnetEventDataSend
	// TelnetEventIAC is a bare two-byte command such as GA, EOR or NOP.
	TelnetEventIAC
	// TelnetEventNegotiation reports a WILL/WONT/DO/DONT that changed
	// option state.
	TelnetEventNegotiation
	// TelnetEventSubnegotiation carries an unescaped subnegotiation
	// payload for one option.
	TelnetEventSubnegotiation
	// TelnetEventDecompressImmediate carries the bytes following an MCCP2
	// start marker. Everything after it is zlib data and must not be fed
	// through the parser again until decompressed.
	TelnetEventDecompressImmediate
)

// TelnetEvent is one parsed unit of the telnet stream.
type TelnetEvent struct {
	Kind    TelnetEventKind
	Data    []byte
	Command byte
	Option  byte
}

// parser states
type telnetState int

const (
	stateData  telnetState = iota
	stateCmd               // seen IAC, awaiting command byte
	stateNeg               // seen IAC WILL/WONT/DO/DONT, awaiting option
	stateSBOpt             // seen IAC SB, awaiting option
	stateSB                // inside subnegotiation payload
	stateSBIAC             // inside subnegotiation, seen IAC
)

// maxSubnegLen bounds a single subnegotiation payload. A server that
// opens IAC SB and never sends IAC SE would otherwise grow the buffer
// without limit; past the bound the payload is discarded and the
// parser resyncs at the next IAC SE.
const maxSubnegLen = 256 * 1024

// Parser is a stateful telnet protocol parser. Feed it raw socket reads
// via Receive; it buffers partial sequences internally, so chunks may
// split commands, negotiations and subnegotiations at any byte.
type Parser struct {
	Options CompatibilityTable

	state      telnetState
	negCmd     byte
	sbOpt      byte
	sbBuf      []byte
	sbOverflow bool
	sbDropped  int
	data       []byte
}

// NewParser creates a parser with the given option table.
func NewParser(options CompatibilityTable) *Parser {
	return NewParserWith(options, 4096)
}

// NewParserDefault creates a parser that refuses every option.
func NewParserDefault() *Parser {
	return NewParser(NewCompatibilityTable())
}

// NewParserWithCapacity creates a refusing parser with a given initial
// buffer capacity.
func NewParserWithCapacity(capacity int) *Parser {
	return NewParserWith(NewCompatibilityTable(), capacity)
}

// NewParserWith creates a parser with explicit options and capacity.
func NewParserWith(options CompatibilityTable, capacity int) *Parser {
	return &Parser{
		Options: options,
		data:    make([]byte, 0, capacity),
	}
}

// Receive consumes one chunk of raw stream data and returns the events
// it completed. Partial sequences are held until the next call.
func (p *Parser) Receive(data []byte) []TelnetEvent {
	var events []TelnetEvent

	for i := 0; i < len(data); i++ {
		b := data[i]

		switch p.state {
		case stateData:
			if b == CmdIAC {
				p.state = stateCmd
			} else {
				p.data = append(p.data, b)
			}

		case stateCmd:
			switch b {
			case CmdIAC:
				// Escaped 255 passes through in raw form; payloads are
				// unescaped where they are interpreted.
				p.data = append(p.data, CmdIAC, CmdIAC)
				p.state = stateData
			case CmdWILL, CmdWONT, CmdDO, CmdDONT:
				p.negCmd = b
				p.state = stateNeg
			case CmdSB:
				p.flushData(&events)
				p.state = stateSBOpt
			default:
				p.flushData(&events)
				events = append(events, TelnetEvent{Kind: TelnetEventIAC, Command: b})
				p.state = stateData
			}

		case stateNeg:
			p.flushData(&events)
			p.negotiate(p.negCmd, b, &events)
			p.state = stateData

		case stateSBOpt:
			p.sbOpt = b
			p.sbBuf = p.sbBuf[:0]
			p.sbOverflow = false
			p.state = stateSB

		case stateSB:
			if b == CmdIAC {
				p.state = stateSBIAC
			} else {
				p.sbAppend(b)
			}

		case stateSBIAC:
			switch b {
			case CmdSE:
				opt := p.sbOpt
				p.state = stateData
				if p.sbOverflow {
					// Oversized payload already discarded; swallow the
					// terminator and resume the data stream.
					p.sbOverflow = false
					p.sbDropped++
					break
				}
				payload := make([]byte, len(p.sbBuf))
				copy(payload, p.sbBuf)
				p.sbBuf = p.sbBuf[:0]
				events = append(events, TelnetEvent{
					Kind:   TelnetEventSubnegotiation,
					Option: opt,
					Data:   payload,
				})
				// MCCP2 start: the rest of this chunk is compressed and
				// must bypass the parser entirely.
				if opt == OptMCCP2 && i+1 < len(data) {
					rest := make([]byte, len(data)-i-1)
					copy(rest, data[i+1:])
					events = append(events, TelnetEvent{
						Kind: TelnetEventDecompressImmediate,
						Data: rest,
					})
					return events
				}
			case CmdIAC:
				// Escaped data byte inside the payload.
				p.sbAppend(CmdIAC)
				p.state = stateSB
			default:
				p.sbAppend(CmdIAC, b)
				p.state = stateSB
			}
		}
	}

	p.flushDataIfIdle(&events)
	return events
}

// sbAppend grows the subnegotiation buffer up to maxSubnegLen. Past the
// bound the whole payload is dropped and further bytes are ignored
// until the closing IAC SE.
func (p *Parser) sbAppend(bytes ...byte) {
	if p.sbOverflow {
		return
	}
	if len(p.sbBuf)+len(bytes) > maxSubnegLen {
		p.sbOverflow = true
		p.sbBuf = p.sbBuf[:0]
		return
	}
	p.sbBuf = append(p.sbBuf, bytes...)
}

// DroppedSubnegotiations reports how many oversized subnegotiation
// payloads have been discarded.
func (p *Parser) DroppedSubnegotiations() int {
	return p.sbDropped
}

// flushData emits accumulated application data as a DataReceive event.
func (p *Parser) flushData(events *[]TelnetEvent) {
	if len(p.data) == 0 {
		return
	}
	out := make([]byte, len(p.data))
	copy(out, p.data)
	p.data = p.data[:0]
	*events = append(*events, TelnetEvent{Kind: TelnetEventDataReceive, Data: out})
}

// flushDataIfIdle flushes pending data at the end of a chunk, but only
// when not mid-sequence.
func (p *Parser) flushDataIfIdle(events *[]TelnetEvent) {
	if p.state == stateData || p.state == stateCmd {
		p.flushData(events)
	}
}

// negotiate applies one WILL/WONT/DO/DONT and queues the reply.
func (p *Parser) negotiate(cmd, opt byte, events *[]TelnetEvent) {
	entry := p.Options.Get(opt)

	switch cmd {
	case CmdWILL:
		switch {
		case entry.Remote && !entry.RemoteState:
			entry.RemoteState = true
			p.Options.Set(opt, entry)
			p.reply(CmdDO, opt, events)
			*events = append(*events, TelnetEvent{Kind: TelnetEventNegotiation, Command: cmd, Option: opt})
		case !entry.Remote:
			p.reply(CmdDONT, opt, events)
		}

	case CmdWONT:
		if entry.RemoteState {
			entry.RemoteState = false
			p.Options.Set(opt, entry)
			p.reply(CmdDONT, opt, events)
			*events = append(*events, TelnetEvent{Kind: TelnetEventNegotiation, Command: cmd, Option: opt})
		}

	case CmdDO:
		switch {
		case entry.Local && !entry.LocalState:
			entry.LocalState = true
			entry.RemoteState = true
			p.Options.Set(opt, entry)
			p.reply(CmdWILL, opt, events)
			*events = append(*events, TelnetEvent{Kind: TelnetEventNegotiation, Command: cmd, Option: opt})
		case !entry.Local:
			p.reply(CmdWONT, opt, events)
		}

	case CmdDONT:
		if entry.LocalState {
			entry.LocalState = false
			p.Options.Set(opt, entry)
			p.reply(CmdWONT, opt, events)
			*events = append(*events, TelnetEvent{Kind: TelnetEventNegotiation, Command: cmd, Option: opt})
		}
	}
}

func (p *Parser) reply(cmd, opt byte, events *[]TelnetEvent) {
	*events = append(*events, TelnetEvent{
		Kind: TelnetEventDataSend,
		Data: []byte{CmdIAC, cmd, opt},
	})
}

// Will announces local support for an option. Returns the send event, or
// nil when the option is unsupported or already enabled.
func (p *Parser) Will(opt byte) *TelnetEvent {
	entry := p.Options.Get(opt)
	if !entry.Local || entry.LocalState {
		return nil
	}
	entry.LocalState = true
	p.Options.Set(opt, entry)
	return &TelnetEvent{
		Kind: TelnetEventDataSend,
		Data: []byte{CmdIAC, CmdWILL, opt},
	}
}

// Subnegotiation builds an outgoing subnegotiation for an enabled
// option. Returns nil when the option has not been negotiated on.
func (p *Parser) Subnegotiation(opt byte, payload []byte) *TelnetEvent {
	entry := p.Options.Get(opt)
	if !entry.LocalState && !entry.RemoteState {
		return nil
	}

	escaped := EscapeIAC(payload)
	data := make([]byte, 0, len(escaped)+5)
	data = append(data, CmdIAC, CmdSB, opt)
	data = append(data, escaped...)
	data = append(data, CmdIAC, CmdSE)
	return &TelnetEvent{Kind: TelnetEventDataSend, Data: data}
}

// LinemodeEnabled reports whether the server negotiated linemode on.
func (p *Parser) LinemodeEnabled() bool {
	return p.Options.Get(OptLinemode).RemoteState
}

// SendText formats a line of user input for the wire: IAC bytes escaped,
// CRLF terminated.
func SendText(text string) TelnetEvent {
	data := EscapeIAC([]byte(text))
	data = append(data, '\r', '\n')
	return TelnetEvent{Kind: TelnetEventDataSend, Data: data}
}

// EscapeIAC doubles every IAC byte so it survives the data stream.
func EscapeIAC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == CmdIAC {
			out = append(out, CmdIAC, CmdIAC)
			continue
		}
		out = append(out, b)
	}
	return out
}

// UnescapeIAC collapses doubled IAC bytes back to single bytes.
func UnescapeIAC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == CmdIAC && i+1 < len(data) && data[i+1] == CmdIAC {
			i++
		}
	}
	return out
}
