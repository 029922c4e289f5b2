package text

import "strings"

// Span is a run of text in a single style. Immutable once emitted.
type Span struct {
	Text  string
	Style Style
}

// Line is an ordered sequence of spans ending at a line terminator.
type Line struct {
	Spans []Span
}

// Text returns the line's content with all styling removed.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// PlainLine wraps already-clean text in a default-styled line. Used for
// client-generated notices (echo, errors, disconnect).
func PlainLine(s string) Line {
	if s == "" {
		return Line{}
	}
	return Line{Spans: []Span{{Text: s}}}
}

// StyledLine wraps text in a single-span line with the given style.
func StyledLine(s string, style Style) Line {
	return Line{Spans: []Span{{Text: s, Style: style}}}
}

// SpanBuilder folds tokens into styled spans and completed lines. It
// carries the running style within a line; style resets to default at
// every line break, so color never bleeds across client-rendered lines
// unless the server re-issues it.
type SpanBuilder struct {
	cur   Style
	buf   strings.Builder
	spans []Span
}

// NewSpanBuilder returns a builder with the default running style.
func NewSpanBuilder() *SpanBuilder {
	return &SpanBuilder{}
}

// Reset discards the open line and returns the style to default.
func (b *SpanBuilder) Reset() {
	b.cur = Style{}
	b.buf.Reset()
	b.spans = nil
}

// Feed consumes tokens in arrival order and returns the lines they
// complete. Equal-style runs coalesce into one span; a style change only
// closes the open span when the resulting style actually differs.
func (b *SpanBuilder) Feed(toks []Token) []Line {
	var lines []Line
	for _, tok := range toks {
		switch tok.Kind {
		case TokenText:
			b.buf.Write(tok.Text)

		case TokenEscape:
			b.setStyle(ApplySGR(b.cur, tok.Params))

		case TokenMarker:
			b.setStyle(ApplyMarker(b.cur, tok.Marker))

		case TokenBreak:
			lines = append(lines, b.close())
		}
	}
	return lines
}

// Pending returns a snapshot of the open, unterminated line. Used to
// display server prompts without committing them.
func (b *SpanBuilder) Pending() Line {
	spans := make([]Span, len(b.spans), len(b.spans)+1)
	copy(spans, b.spans)
	if b.buf.Len() > 0 {
		spans = append(spans, Span{Text: b.buf.String(), Style: b.cur})
	}
	return Line{Spans: spans}
}

// Flush force-closes the open line and returns it. Used on disconnect
// so trailing unterminated output is not lost.
func (b *SpanBuilder) Flush() Line {
	return b.close()
}

func (b *SpanBuilder) setStyle(next Style) {
	if next == b.cur {
		return
	}
	b.closeSpan()
	b.cur = next
}

func (b *SpanBuilder) closeSpan() {
	if b.buf.Len() == 0 {
		return
	}
	b.spans = append(b.spans, Span{Text: b.buf.String(), Style: b.cur})
	b.buf.Reset()
}

func (b *SpanBuilder) close() Line {
	b.closeSpan()
	line := Line{Spans: b.spans}
	b.spans = nil
	b.cur = Style{}
	return line
}
