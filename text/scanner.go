package text

import "strconv"

// MarkerSigil introduces an inline color marker in the plain text stream.
const MarkerSigil = '$'

// maxSeqBytes bounds collected escape parameters. A sequence that grows
// past this is treated as hostile and discarded so scanning always makes
// forward progress.
const maxSeqBytes = 16

type scanState uint8

const (
	stateNormal    scanState = iota
	stateEscape              // saw ESC
	stateCSI                 // inside ESC[ collecting parameters
	stateMarker              // saw the marker sigil
	stateMarkerNum           // collecting digits after $x
)

// Scanner tokenizes a server byte stream into text, escape, marker and
// line-break tokens. It is resumable: sequences split across network
// reads are carried in scanner state and completed by later chunks.
// Not safe for concurrent use; one scanner per connection.
type Scanner struct {
	state  scanState
	text   []byte
	seq    []byte // escape parameter bytes
	digits []byte // extended marker digits

	// Line terminator that opened the last break, used to swallow its
	// partner byte (\r\n, \n\r) even across a chunk boundary.
	pendingBreak byte
}

// NewScanner returns a scanner in the Normal state.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Reset discards all partial state. Called when a connection ends;
// in-flight sequences never survive into a new session.
func (s *Scanner) Reset() {
	*s = Scanner{}
}

// Scan consumes one chunk and returns the tokens it completes. Trailing
// plain text is flushed as a token at the end of the chunk; a partial
// escape or marker is held for the next chunk.
func (s *Scanner) Scan(chunk []byte) []Token {
	var toks []Token

	for i := 0; i < len(chunk); i++ {
		b := chunk[i]

		if s.pendingBreak != 0 {
			pb := s.pendingBreak
			s.pendingBreak = 0
			if (pb == '\n' && b == '\r') || (pb == '\r' && b == '\n') {
				continue
			}
		}

		switch s.state {
		case stateNormal:
			s.normal(b, &toks)

		case stateEscape:
			if b == '[' {
				s.state = stateCSI
				s.seq = s.seq[:0]
			} else {
				// Not a CSI sequence; drop the ESC and rescan the byte.
				s.state = stateNormal
				s.normal(b, &toks)
			}

		case stateCSI:
			s.csi(b, &toks)

		case stateMarker:
			s.marker(b, &toks)

		case stateMarkerNum:
			s.markerNum(b, &toks)
		}
	}

	s.flushText(&toks)
	return toks
}

// normal handles a byte in the Normal state.
func (s *Scanner) normal(b byte, toks *[]Token) {
	switch b {
	case 0x1B:
		s.flushText(toks)
		s.state = stateEscape
	case MarkerSigil:
		s.flushText(toks)
		s.state = stateMarker
	case '\n', '\r':
		s.flushText(toks)
		*toks = append(*toks, Token{Kind: TokenBreak})
		s.pendingBreak = b
	default:
		s.text = append(s.text, b)
	}
}

// csi handles a byte while collecting ESC[ parameters.
func (s *Scanner) csi(b byte, toks *[]Token) {
	switch {
	case b >= 0x20 && b <= 0x3F:
		// Parameter and intermediate bytes.
		if len(s.seq) >= maxSeqBytes {
			// Overlong sequence; discard and resync.
			s.state = stateNormal
			return
		}
		s.seq = append(s.seq, b)

	case b == 'm':
		*toks = append(*toks, Token{Kind: TokenEscape, Params: parseParams(s.seq)})
		s.state = stateNormal

	case b >= 0x40 && b <= 0x7E:
		// Final byte of a non-SGR sequence (cursor movement, clears).
		// Styling is all this client cares about; dropped.
		s.state = stateNormal

	default:
		// A byte that cannot appear inside a CSI sequence. Discard the
		// partial sequence and rescan the byte in Normal.
		s.state = stateNormal
		s.normal(b, toks)
	}
}

// marker handles the byte after the sigil.
func (s *Scanner) marker(b byte, toks *[]Token) {
	switch {
	case b == 'x':
		s.state = stateMarkerNum
		s.digits = s.digits[:0]
	case isShortcut(b):
		*toks = append(*toks, Token{Kind: TokenMarker, Marker: Marker{Shortcut: b}})
		s.state = stateNormal
	default:
		// Unrecognized marker; the sigil is discarded and the byte rescanned.
		s.state = stateNormal
		s.normal(b, toks)
	}
}

// markerNum handles digits after $x. Indexes are one to three digits.
func (s *Scanner) markerNum(b byte, toks *[]Token) {
	if b >= '0' && b <= '9' {
		if len(s.digits) >= 3 {
			// Overlong marker; discard everything collected.
			s.state = stateNormal
			return
		}
		s.digits = append(s.digits, b)
		return
	}

	if len(s.digits) > 0 {
		n, _ := strconv.Atoi(string(s.digits))
		*toks = append(*toks, Token{Kind: TokenMarker, Marker: Marker{Extended: true, Index: n}})
	}
	// Either the completed marker's terminator or a bare "$x"; rescan.
	s.state = stateNormal
	s.normal(b, toks)
}

func (s *Scanner) flushText(toks *[]Token) {
	if len(s.text) == 0 {
		return
	}
	*toks = append(*toks, Token{Kind: TokenText, Text: s.text})
	s.text = nil
}

// parseParams converts collected parameter bytes into SGR integers.
// Empty fields decode as 0 per SGR convention; unparsable fields are
// skipped so one bad value cannot poison its neighbors.
func parseParams(seq []byte) []int {
	if len(seq) == 0 {
		return nil
	}
	params := make([]int, 0, 4)
	start := 0
	for i := 0; i <= len(seq); i++ {
		if i < len(seq) && seq[i] != ';' {
			continue
		}
		field := seq[start:i]
		start = i + 1
		if len(field) == 0 {
			params = append(params, 0)
			continue
		}
		if n, err := strconv.Atoi(string(field)); err == nil {
			params = append(params, n)
		}
	}
	return params
}
