package term

// Color identifies one of the 16 ANSI palette entries, or the terminal
// default. The zero value is Default so that a zero Style renders as
// unstyled text (and an unset background means "no background").
type Color uint8

const (
	Default Color = iota
	Black
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

// ANSIIndex returns the 0-15 palette index for c, and false for Default.
func (c Color) ANSIIndex() (int, bool) {
	if c == Default || c > BrightWhite {
		return 0, false
	}
	return int(c - Black), true
}

func (c Color) String() string {
	names := [...]string{
		"default", "black", "red", "green", "yellow", "blue", "magenta",
		"cyan", "white", "bright-black", "bright-red", "bright-green",
		"bright-yellow", "bright-blue", "bright-magenta", "bright-cyan",
		"bright-white",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "default"
}

// Style holds the rendering attributes in effect for a run of text.
// The zero value is the default style: default foreground, no background,
// no emphasis. A Style persists across runs until changed by SGR.
type Style struct {
	FG        Color
	BG        Color // Default means no background
	Bold      bool
	Italic    bool
	Underline bool
}

// Span is one immutable run of decoded text with its style snapshot.
type Span struct {
	Text  string
	Style Style
}

// Line is the unit delivered to the consumer: either a batch of styled
// spans decoded from PTY output, or a single diagnostic line (Stderr).
// Only one of the two fields is ever populated.
type Line struct {
	Spans  []Span
	Stderr string
}

// StyledLine wraps a non-empty span batch.
func StyledLine(spans []Span) Line {
	return Line{Spans: spans}
}

// StderrLine wraps a diagnostic message (spawn failures and the like).
func StderrLine(msg string) Line {
	return Line{Stderr: msg}
}
