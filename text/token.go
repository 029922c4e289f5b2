package text

// TokenKind identifies what the scanner recognized.
type TokenKind uint8

const (
	TokenText   TokenKind = iota // a run of plain bytes
	TokenEscape                  // a complete SGR escape sequence
	TokenMarker                  // an inline $ color marker
	TokenBreak                   // a line terminator
)

// Marker is an inline color marker: either a single shortcut letter
// ($R) or an extended 256-color index ($x123).
type Marker struct {
	Extended bool
	Shortcut byte
	Index    int
}

// Token is a single unit of scanned stream content, produced in stream
// order. Text aliases the scanner's internal buffer only until the next
// Scan call.
type Token struct {
	Kind   TokenKind
	Text   []byte // TokenText
	Params []int  // TokenEscape; empty slice means bare ESC[m
	Marker Marker // TokenMarker
}
