package term

import "unicode/utf8"

// Handler receives decode events from the Parser. Print gets assembled
// runes, Execute gets C0 control bytes, CSI gets complete control
// sequences (semicolon-separated numeric params plus the final byte).
type Handler interface {
	Print(r rune)
	Execute(b byte)
	CSI(params []int, final byte)
}

// parser states
type parseState uint8

const (
	stateGround parseState = iota
	stateEscape             // seen ESC
	stateCSI                // inside ESC [ ... collecting params
	stateString             // OSC/DCS/APC/PM/SOS body, consumed until BEL or ST
	stateStringEsc          // ESC inside a string body (possible ST)
)

// Limits matching common terminal parser practice. Excess params are
// dropped, oversized values clamped, so arbitrary input stays bounded.
const (
	maxParams     = 32
	maxParamValue = 9999
)

// Parser is a byte-at-a-time decoder for a terminal output stream. It is
// total: any byte sequence, including malformed or truncated escape
// sequences, is consumed without error. Sequences it does not understand
// are silently dropped. Not safe for concurrent use; the reading pump is
// the only caller.
type Parser struct {
	state parseState

	params    []int
	param     int
	hasDigit  bool
	hasParams bool
	ignore    bool // private marker or intermediates seen; suppress dispatch

	utf8buf  [utf8.UTFMax]byte
	utf8len  int
	utf8need int
}

// NewParser returns a parser in the ground state.
func NewParser() *Parser {
	return &Parser{params: make([]int, 0, maxParams)}
}

// Advance feeds a chunk of raw PTY output through the state machine,
// invoking h for every decoded event.
func (p *Parser) Advance(h Handler, data []byte) {
	for _, b := range data {
		p.advance(h, b)
	}
}

func (p *Parser) advance(h Handler, b byte) {
	// A control byte arriving mid-rune abandons the partial sequence.
	if p.utf8need > 0 && b < 0x80 {
		p.utf8need = 0
		p.utf8len = 0
		h.Print(utf8.RuneError)
	}

	switch p.state {
	case stateGround:
		p.ground(h, b)
	case stateEscape:
		p.escape(h, b)
	case stateCSI:
		p.csi(h, b)
	case stateString:
		switch b {
		case 0x07: // BEL terminates OSC
			p.state = stateGround
		case 0x1b:
			p.state = stateStringEsc
		}
	case stateStringEsc:
		if b == '\\' { // ST
			p.state = stateGround
		} else {
			p.state = stateEscape
			p.escape(h, b)
		}
	}
}

func (p *Parser) ground(h Handler, b byte) {
	switch {
	case b == 0x1b:
		p.state = stateEscape
	case b < 0x20:
		h.Execute(b)
	case b == 0x7f:
		// DEL is ignored on output
	case b < 0x80:
		h.Print(rune(b))
	default:
		p.utf8byte(h, b)
	}
}

// utf8byte assembles multi-byte runes. Invalid encodings decode to
// U+FFFD rather than being dropped, keeping byte accounting simple.
func (p *Parser) utf8byte(h Handler, b byte) {
	if p.utf8need == 0 {
		switch {
		case b&0xe0 == 0xc0:
			p.utf8need = 2
		case b&0xf0 == 0xe0:
			p.utf8need = 3
		case b&0xf8 == 0xf0:
			p.utf8need = 4
		default:
			h.Print(utf8.RuneError)
			return
		}
		p.utf8buf[0] = b
		p.utf8len = 1
		return
	}

	if b&0xc0 != 0x80 {
		// not a continuation byte; abandon and reprocess
		p.utf8need = 0
		p.utf8len = 0
		h.Print(utf8.RuneError)
		p.ground(h, b)
		return
	}

	p.utf8buf[p.utf8len] = b
	p.utf8len++
	if p.utf8len == p.utf8need {
		r, _ := utf8.DecodeRune(p.utf8buf[:p.utf8len])
		h.Print(r)
		p.utf8need = 0
		p.utf8len = 0
	}
}

func (p *Parser) escape(h Handler, b byte) {
	switch {
	case b == '[':
		p.state = stateCSI
		p.params = p.params[:0]
		p.param = 0
		p.hasDigit = false
		p.hasParams = false
		p.ignore = false
	case b == ']' || b == 'P' || b == 'X' || b == '^' || b == '_':
		// OSC / DCS / SOS / PM / APC: swallow until BEL or ST
		p.state = stateString
	case b == 0x1b:
		// stay in escape
	case b == 0x18 || b == 0x1a: // CAN, SUB
		p.state = stateGround
	case b < 0x20:
		h.Execute(b)
	default:
		// two-byte escapes (charset selection, keypad modes, ...) and
		// anything unrecognized: consumed, never surfaced
		p.state = stateGround
	}
}

func (p *Parser) csi(h Handler, b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.param = p.param*10 + int(b-'0')
		if p.param > maxParamValue {
			p.param = maxParamValue
		}
		p.hasDigit = true
	case b == ';':
		p.pushParam()
	case b == ':' || (b >= '<' && b <= '?'):
		// subparameters and private markers: the whole sequence is
		// outside what we render
		p.ignore = true
	case b >= 0x20 && b <= 0x2f:
		// intermediate bytes
		p.ignore = true
	case b == 0x1b:
		p.state = stateEscape
	case b == 0x18 || b == 0x1a:
		p.state = stateGround
	case b < 0x20:
		h.Execute(b)
	case b >= 0x40 && b <= 0x7e:
		if p.hasDigit || p.hasParams {
			p.pushParam()
		}
		if !p.ignore {
			h.CSI(p.params, b)
		}
		p.state = stateGround
	default:
		// 0x7f and anything else: ignored inside a sequence
	}
}

func (p *Parser) pushParam() {
	if len(p.params) < maxParams {
		p.params = append(p.params, p.param)
	}
	p.param = 0
	p.hasDigit = false
	p.hasParams = true
}
