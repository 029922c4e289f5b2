package text

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-runewidth"
)

// seqCache memoizes rendered style prefixes. MUD output reuses a small
// set of styles heavily, so the hit rate is high.
var seqCache, _ = lru.New[Style, string](256)

// RenderANSI serializes a styled line back into an ANSI string for the
// terminal renderer.
func RenderANSI(l Line) string {
	var b strings.Builder
	styled := false
	for _, s := range l.Spans {
		if s.Style == (Style{}) {
			if styled {
				b.WriteString("\x1b[0m")
				styled = false
			}
		} else {
			b.WriteString(styleSeq(s.Style))
			styled = true
		}
		b.WriteString(s.Text)
	}
	if styled {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

// styleSeq renders a style as a single SGR sequence. The sequence always
// leads with a reset so it fully determines the terminal state.
func styleSeq(s Style) string {
	if seq, ok := seqCache.Get(s); ok {
		return seq
	}

	params := make([]string, 0, 6)
	params = append(params, "0")
	if s.Bold {
		params = append(params, "1")
	}
	if s.Underline {
		params = append(params, "4")
	}
	if s.Inverse {
		params = append(params, "7")
	}
	params = appendColor(params, s.Fg, false)
	params = appendColor(params, s.Bg, true)

	seq := "\x1b[" + strings.Join(params, ";") + "m"
	seqCache.Add(s, seq)
	return seq
}

func appendColor(params []string, c Color, bg bool) []string {
	switch c.Kind {
	case ColorDefault:
		return params
	case ColorNamed:
		base := 30
		if c.Index >= 8 {
			base = 90 - 8
		}
		if bg {
			base += 10
		}
		return append(params, strconv.Itoa(base+int(c.Index)))
	case ColorIndexed:
		lead := "38"
		if bg {
			lead = "48"
		}
		return append(params, lead, "5", strconv.Itoa(int(c.Index)))
	}
	return params
}

// StripANSI removes ANSI escape codes from a string.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// StripMXP removes MXP markup tags from server text. Only the tags
// themselves are stripped; anything between them stays.
func StripMXP(s string) string {
	if !strings.Contains(s, "<MXP>") && !strings.Contains(s, "</MXP>") {
		return s
	}
	s = strings.ReplaceAll(s, "<MXP>", "")
	return strings.ReplaceAll(s, "</MXP>", "")
}

// VisibleLen returns the visible display width of a string (excluding
// ANSI codes), accounting for wide runes.
func VisibleLen(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}
