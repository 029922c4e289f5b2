package text

// markerColors is the fixed shortcut table. Uppercase letters select the
// standard palette (equivalent to SGR 30-37), lowercase the bright one
// (SGR 90-97). The table is case-sensitive.
var markerColors = map[byte]Color{
	'K': Named(Black),
	'R': Named(Red),
	'G': Named(Green),
	'Y': Named(Yellow),
	'B': Named(Blue),
	'M': Named(Magenta),
	'C': Named(Cyan),
	'W': Named(White),
	'k': Named(BrightBlack),
	'r': Named(BrightRed),
	'g': Named(BrightGreen),
	'y': Named(BrightYellow),
	'b': Named(BrightBlue),
	'm': Named(BrightMagenta),
	'c': Named(BrightCyan),
	'w': Named(BrightWhite),
}

// isShortcut reports whether b is a recognized marker letter. $n resets
// the running style, everything else comes from the color table.
func isShortcut(b byte) bool {
	if b == 'n' {
		return true
	}
	_, ok := markerColors[b]
	return ok
}

// ApplySGR applies an escape sequence's parameters to the running style
// and returns the result. Parameters apply left to right; later ones
// override earlier ones touching the same attribute. Codes this client
// does not style are ignored, never an error.
func ApplySGR(cur Style, params []int) Style {
	if len(params) == 0 {
		return Style{}
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			cur = Style{}
		case p == 1:
			cur.Bold = true
		case p == 22:
			cur.Bold = false
		case p == 4:
			cur.Underline = true
		case p == 24:
			cur.Underline = false
		case p == 7:
			cur.Inverse = true
		case p == 27:
			cur.Inverse = false
		case p >= 30 && p <= 37:
			cur.Fg = Named(uint8(p - 30))
		case p == 39:
			cur.Fg = Color{}
		case p >= 40 && p <= 47:
			cur.Bg = Named(uint8(p - 40))
		case p == 49:
			cur.Bg = Color{}
		case p >= 90 && p <= 97:
			cur.Fg = Named(uint8(p - 90 + 8))
		case p >= 100 && p <= 107:
			cur.Bg = Named(uint8(p - 100 + 8))
		case p == 38 || p == 48:
			c, skip, ok := extendedColor(params[i+1:])
			i += skip
			if !ok {
				continue
			}
			if p == 38 {
				cur.Fg = c
			} else {
				cur.Bg = c
			}
		}
	}
	return cur
}

// extendedColor decodes the tail of a 38/48 parameter group. Only the
// ;5;N indexed form maps onto the color model; the ;2;R;G;B form is
// consumed and dropped. Returns the color, the number of parameters
// consumed, and whether a color was produced.
func extendedColor(rest []int) (Color, int, bool) {
	if len(rest) == 0 {
		return Color{}, 0, false
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return Color{}, len(rest), false
		}
		return Indexed(rest[1]), 2, true
	case 2:
		n := 4
		if len(rest) < n {
			n = len(rest)
		}
		return Color{}, n, false
	default:
		return Color{}, 1, false
	}
}

// ApplyMarker applies an inline marker to the running style. Extended
// markers behave exactly like a 38;5;N escape; $n resets.
func ApplyMarker(cur Style, m Marker) Style {
	if m.Extended {
		cur.Fg = Indexed(m.Index)
		return cur
	}
	if m.Shortcut == 'n' {
		return Style{}
	}
	if c, ok := markerColors[m.Shortcut]; ok {
		cur.Fg = c
	}
	return cur
}
