package term

// Performer accumulates parser events into styled spans. Printable runes
// collect in a buffer under the currently active style; SGR sequences cut
// the buffer into a completed span before changing the style, so every
// span carries exactly one style snapshot.
//
// Owned exclusively by the session's reading pump; no locking.
type Performer struct {
	buf       []rune
	style     Style
	pendingCR bool
	spans     []Span
}

func NewPerformer() *Performer {
	return &Performer{}
}

// Print appends a decoded rune. A carriage return seen earlier is applied
// here, lazily: the current line is discarded back to just past the last
// newline (or entirely, when the buffer holds no newline) before the new
// rune lands. Deferring the overwrite keeps a plain \r\n pair from
// truncating anything.
func (p *Performer) Print(r rune) {
	if p.pendingCR {
		p.truncateLine()
		p.pendingCR = false
	}
	p.buf = append(p.buf, r)
}

func (p *Performer) truncateLine() {
	for i := len(p.buf) - 1; i >= 0; i-- {
		if p.buf[i] == '\n' {
			p.buf = p.buf[:i+1]
			return
		}
	}
	p.buf = p.buf[:0]
}

// Execute handles C0 control bytes. Anything not listed is dropped.
func (p *Performer) Execute(b byte) {
	switch b {
	case '\n':
		p.pendingCR = false
		p.buf = append(p.buf, '\n')
	case '\r':
		// overwrite applied on the next Print
		p.pendingCR = true
	case '\t':
		p.buf = append(p.buf, '\t')
	case 0x08:
		if len(p.buf) > 0 {
			p.buf = p.buf[:len(p.buf)-1]
		}
	}
}

// CSI handles complete control sequences. Only SGR (final byte 'm') is
// rendered; cursor movement, erase, and the rest of the CSI family are
// out of scope for a log-style view and ignored here.
func (p *Performer) CSI(params []int, final byte) {
	if final != 'm' {
		return
	}

	// style is about to change; close out the run decoded so far
	p.Flush()

	if len(params) == 0 {
		p.style = Style{}
		return
	}
	for _, code := range params {
		p.applySGR(code)
	}
}

func (p *Performer) applySGR(code int) {
	switch {
	case code == 0:
		p.style = Style{}
	case code == 1:
		p.style.Bold = true
	case code == 3:
		p.style.Italic = true
	case code == 4:
		p.style.Underline = true
	case code == 22:
		p.style.Bold = false
	case code == 23:
		p.style.Italic = false
	case code == 24:
		p.style.Underline = false
	case code >= 30 && code <= 37:
		p.style.FG = Black + Color(code-30)
	case code == 39:
		p.style.FG = Default
	case code >= 40 && code <= 47:
		p.style.BG = Black + Color(code-40)
	case code == 49:
		p.style.BG = Default
	case code >= 90 && code <= 97:
		p.style.FG = BrightBlack + Color(code-90)
	case code >= 100 && code <= 107:
		p.style.BG = BrightBlack + Color(code-100)
	}
	// everything else (blink, reverse, 256/truecolor extensions) ignored
}

// Flush moves any buffered text into the completed-span list with the
// active style. The style itself is not reset by flushing.
func (p *Performer) Flush() {
	if len(p.buf) == 0 {
		return
	}
	p.spans = append(p.spans, Span{Text: string(p.buf), Style: p.style})
	p.buf = p.buf[:0]
}

// Take returns the completed spans accumulated since the last call and
// clears the list. Returns nil when nothing has completed.
func (p *Performer) Take() []Span {
	spans := p.spans
	p.spans = nil
	return spans
}
