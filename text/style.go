package text

// ColorKind discriminates the closed set of color representations.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorNamed             // palette index 0-15 (standard + bright)
	ColorIndexed           // xterm 256-color index 0-255
)

// Color is a terminal color value. The zero value is the terminal default.
type Color struct {
	Kind  ColorKind
	Index uint8
}

// Named color indexes (0-7 standard, 8-15 bright).
const (
	Black uint8 = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

// Named returns a standard palette color. n is masked to 0-15.
func Named(n uint8) Color {
	return Color{Kind: ColorNamed, Index: n & 0x0F}
}

// Indexed returns an xterm 256-color value. Out-of-range indexes are
// clamped to the nearest valid index rather than rejected.
func Indexed(n int) Color {
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return Color{Kind: ColorIndexed, Index: uint8(n)}
}

// Style describes the rendition of a text run. The zero value is the
// default style. Style is comparable, which the renderer relies on for
// span coalescing and cache keys.
type Style struct {
	Fg        Color
	Bg        Color
	Bold      bool
	Underline bool
	Inverse   bool
}
