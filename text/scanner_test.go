package text

import (
	"bytes"
	"testing"
)

// scanAll feeds chunks through one scanner and builder, returning
// completed lines plus whatever is still pending.
func scanAll(t *testing.T, chunks ...[]byte) ([]Line, Line) {
	t.Helper()
	s := NewScanner()
	b := NewSpanBuilder()
	var lines []Line
	for _, c := range chunks {
		lines = append(lines, b.Feed(s.Scan(c))...)
	}
	return lines, b.Pending()
}

func TestStyleResetRoundTrip(t *testing.T) {
	lines, _ := scanAll(t, []byte("\x1b[31mHello \x1b[0mWorld\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	spans := lines[0].Spans
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Text != "Hello " || spans[0].Style.Fg != Named(Red) {
		t.Errorf("first span wrong: %+v", spans[0])
	}
	if spans[1].Text != "World" || spans[1].Style != (Style{}) {
		t.Errorf("second span wrong: %+v", spans[1])
	}
}

func TestSplitSequenceResumption(t *testing.T) {
	lines, pending := scanAll(t, []byte("\x1b[3"), []byte("1mHi\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d (pending %+v)", len(lines), pending)
	}
	spans := lines[0].Spans
	if len(spans) != 1 {
		t.Fatalf("expected exactly 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].Text != "Hi" || spans[0].Style.Fg != Named(Red) {
		t.Errorf("unexpected span: %+v", spans[0])
	}
}

func TestMarkerShortcut(t *testing.T) {
	lines, _ := scanAll(t, []byte("$Rdanger$n safe\n"))
	spans := lines[0].Spans
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %+v", spans)
	}
	if spans[0].Text != "danger" || spans[0].Style.Fg != Named(Red) {
		t.Errorf("marker span wrong: %+v", spans[0])
	}
	if spans[1].Text != " safe" || spans[1].Style != (Style{}) {
		t.Errorf("reset span wrong: %+v", spans[1])
	}
}

func TestExtendedMarker(t *testing.T) {
	lines, _ := scanAll(t, []byte("$x214flame\n"))
	spans := lines[0].Spans
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %+v", spans)
	}
	if spans[0].Style.Fg != Indexed(214) {
		t.Errorf("expected indexed 214, got %+v", spans[0].Style.Fg)
	}
	if spans[0].Text != "flame" {
		t.Errorf("expected text 'flame', got %q", spans[0].Text)
	}
}

func TestMarkerSplitAcrossChunks(t *testing.T) {
	lines, _ := scanAll(t, []byte("$"), []byte("x2"), []byte("14ok\n"))
	spans := lines[0].Spans
	if len(spans) != 1 || spans[0].Style.Fg != Indexed(214) || spans[0].Text != "ok" {
		t.Fatalf("marker not reassembled: %+v", spans)
	}
}

func TestOverlongMarkerResync(t *testing.T) {
	lines, _ := scanAll(t, []byte("$x1234after\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if got := lines[0].Text(); got != "after" {
		t.Errorf("expected resync to keep 'after', got %q", got)
	}
	for _, s := range lines[0].Spans {
		if s.Style != (Style{}) {
			t.Errorf("discarded marker leaked style: %+v", s)
		}
	}
}

func TestUnrecognizedMarkerDiscardsSigil(t *testing.T) {
	lines, _ := scanAll(t, []byte("cost $5 gold\n"))
	if got := lines[0].Text(); got != "cost 5 gold" {
		t.Errorf("expected sigil dropped, got %q", got)
	}
}

func TestOverlongEscapeResync(t *testing.T) {
	// 20 parameter bytes exceed the bound: the collected prefix and the
	// overflowing byte are discarded, the remainder rescans as plain
	// text, and scanning keeps making progress.
	long := append([]byte("\x1b["), bytes.Repeat([]byte("1"), 20)...)
	long = append(long, []byte("\nok\n")...)
	lines, _ := scanAll(t, long)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if got := lines[0].Text(); got != "111" {
		t.Errorf("expected discarded tail '111', got %q", got)
	}
	if got := lines[1].Text(); got != "ok" {
		t.Errorf("expected later text intact, got %q", got)
	}
}

func TestNonSGRSequencesDropped(t *testing.T) {
	lines, _ := scanAll(t, []byte("\x1b[2J\x1b[Hclean\n"))
	if got := lines[0].Text(); got != "clean" {
		t.Errorf("expected cursor/clear sequences dropped, got %q", got)
	}
}

func TestLineTerminatorVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"CRLF", "a\r\nb\r\n", []string{"a", "b"}},
		{"LF", "a\nb\n", []string{"a", "b"}},
		{"LFCR", "a\n\rb\n\r", []string{"a", "b"}},
		{"Mixed", "a\r\nb\nc\n\r", []string{"a", "b", "c"}},
		{"BlankLines", "a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _ := scanAll(t, []byte(tt.input))
			if len(lines) != len(tt.expected) {
				t.Fatalf("expected %d lines, got %d", len(tt.expected), len(lines))
			}
			for i := range tt.expected {
				if got := lines[i].Text(); got != tt.expected[i] {
					t.Errorf("line %d: expected %q, got %q", i, tt.expected[i], got)
				}
			}
		})
	}
}

func TestCRLFSplitAcrossChunks(t *testing.T) {
	lines, _ := scanAll(t, []byte("one\r"), []byte("\ntwo\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text() != "one" || lines[1].Text() != "two" {
		t.Errorf("unexpected lines: %q, %q", lines[0].Text(), lines[1].Text())
	}
}

func TestStyleDoesNotPersistAcrossLines(t *testing.T) {
	lines, _ := scanAll(t, []byte("\x1b[31mred\nplain\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1].Spans[0].Style != (Style{}) {
		t.Errorf("style leaked across line break: %+v", lines[1].Spans[0])
	}
}

func TestPendingPrompt(t *testing.T) {
	lines, pending := scanAll(t, []byte("\x1b[33mEnter password: "))
	if len(lines) != 0 {
		t.Fatalf("prompt should not complete a line, got %d", len(lines))
	}
	if got := pending.Text(); got != "Enter password: " {
		t.Errorf("unexpected pending text %q", got)
	}
	if pending.Spans[0].Style.Fg != Named(Yellow) {
		t.Errorf("pending style wrong: %+v", pending.Spans[0].Style)
	}
}

func TestEqualStyleRunsCoalesce(t *testing.T) {
	// The second 31 is a no-op change; the run must stay one span.
	lines, _ := scanAll(t, []byte("\x1b[31mab\x1b[31mcd\n"))
	spans := lines[0].Spans
	if len(spans) != 1 {
		t.Fatalf("expected coalesced span, got %+v", spans)
	}
	if spans[0].Text != "abcd" {
		t.Errorf("expected 'abcd', got %q", spans[0].Text)
	}
}

func TestEscWithoutBracketRescansByte(t *testing.T) {
	lines, _ := scanAll(t, []byte("a\x1bbc\n"))
	if got := lines[0].Text(); got != "abc" {
		t.Errorf("expected lone ESC dropped, got %q", got)
	}
}

func TestScannerReset(t *testing.T) {
	s := NewScanner()
	s.Scan([]byte("\x1b[3")) // leave a partial escape behind
	s.Reset()
	toks := s.Scan([]byte("1mHi"))
	// After reset the "1m" is plain text, not a resumed escape.
	if len(toks) != 1 || toks[0].Kind != TokenText || string(toks[0].Text) != "1mHi" {
		t.Errorf("reset did not discard partial state: %+v", toks)
	}
}

func TestUTF8PassThrough(t *testing.T) {
	input := "⚔ привет $Rмеч\n"
	lines, _ := scanAll(t, []byte(input))
	if got := lines[0].Text(); got != "⚔ привет меч" {
		t.Errorf("multibyte text mangled: %q", got)
	}
}
