package term

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode runs input through a fresh parser+performer and returns the
// resulting spans after a final flush.
func decode(input string) []Span {
	p := NewParser()
	perf := NewPerformer()
	p.Advance(perf, []byte(input))
	perf.Flush()
	return perf.Take()
}

// text concatenates span contents, ignoring styles.
func text(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func TestCRLFRoundTrip(t *testing.T) {
	// \r immediately followed by \n must not truncate anything
	assert.Equal(t, "abc\ndef", text(decode("abc\r\ndef")))
}

func TestCarriageReturnOverwrite(t *testing.T) {
	// a bare \r discards the current line on the next print
	assert.Equal(t, "XY", text(decode("abc\rXY")))
}

func TestCarriageReturnOverwriteKeepsPriorLines(t *testing.T) {
	// only the text after the last newline is discarded
	assert.Equal(t, "keep\nXY", text(decode("keep\nabc\rXY")))
}

func TestCarriageReturnProgressBar(t *testing.T) {
	// the classic progress-bar pattern: every rewrite replaces the line
	assert.Equal(t, "100%", text(decode("10%\r50%\r100%")))
}

func TestTrailingCarriageReturnIsInert(t *testing.T) {
	// a \r with no following print leaves the buffer untouched
	assert.Equal(t, "abc", text(decode("abc\r")))
}

func TestBackspace(t *testing.T) {
	assert.Equal(t, "ac", text(decode("ab\x08c")))
	// backspace on an empty buffer is a no-op
	assert.Equal(t, "x", text(decode("\x08x")))
}

func TestTabPreserved(t *testing.T) {
	assert.Equal(t, "a\tb", text(decode("a\tb")))
}

func TestSGRSegmentation(t *testing.T) {
	spans := decode("\x1b[1;31mhi\x1b[0mlo")
	require.Len(t, spans, 2)

	assert.Equal(t, "hi", spans[0].Text)
	assert.Equal(t, Style{FG: Red, Bold: true}, spans[0].Style)

	assert.Equal(t, "lo", spans[1].Text)
	assert.Equal(t, Style{}, spans[1].Style)
}

func TestSGRResetIdempotence(t *testing.T) {
	// 0 resets every attribute regardless of what preceded it
	for _, prefix := range []string{
		"\x1b[1;3;4;31;44m",
		"\x1b[97;107;1m",
		"\x1b[4m\x1b[95m\x1b[3m",
	} {
		spans := decode(prefix + "x\x1b[0my")
		require.Len(t, spans, 2, "input %q", prefix)
		assert.Equal(t, Style{}, spans[1].Style, "input %q", prefix)
	}
}

func TestSGRAttributeClears(t *testing.T) {
	spans := decode("\x1b[1;3;4ma\x1b[22mb\x1b[23mc\x1b[24md")
	require.Len(t, spans, 4)

	assert.Equal(t, Style{Bold: true, Italic: true, Underline: true}, spans[0].Style)
	assert.Equal(t, Style{Italic: true, Underline: true}, spans[1].Style)
	assert.Equal(t, Style{Underline: true}, spans[2].Style)
	assert.Equal(t, Style{}, spans[3].Style)
}

func TestSGRColors(t *testing.T) {
	tests := []struct {
		seq  string
		want Style
	}{
		{"\x1b[30m", Style{FG: Black}},
		{"\x1b[31m", Style{FG: Red}},
		{"\x1b[37m", Style{FG: White}},
		{"\x1b[90m", Style{FG: BrightBlack}},
		{"\x1b[92m", Style{FG: BrightGreen}},
		{"\x1b[97m", Style{FG: BrightWhite}},
		{"\x1b[39m", Style{}},
		{"\x1b[41m", Style{BG: Red}},
		{"\x1b[47m", Style{BG: White}},
		{"\x1b[100m", Style{BG: BrightBlack}},
		{"\x1b[107m", Style{BG: BrightWhite}},
		{"\x1b[31;49m", Style{FG: Red}},
	}
	for _, tt := range tests {
		spans := decode(tt.seq + "x")
		require.Len(t, spans, 1, "seq %q", tt.seq)
		assert.Equal(t, tt.want, spans[0].Style, "seq %q", tt.seq)
	}
}

func TestSGREmptyParamsReset(t *testing.T) {
	// ESC[m and ESC[;m both mean reset
	spans := decode("\x1b[1;31mx\x1b[my")
	require.Len(t, spans, 2)
	assert.Equal(t, Style{}, spans[1].Style)

	spans = decode("\x1b[;31mx")
	require.Len(t, spans, 1)
	assert.Equal(t, Style{FG: Red}, spans[0].Style)
}

func TestSGRUnknownCodesIgnored(t *testing.T) {
	spans := decode("\x1b[5;7;38;99mx")
	require.Len(t, spans, 1)
	assert.Equal(t, Style{}, spans[0].Style)
	assert.Equal(t, "x", spans[0].Text)
}

func TestNonSGRSequencesIgnored(t *testing.T) {
	// cursor movement, erase, OSC titles: all consumed silently
	assert.Equal(t, "hello", text(decode("\x1b[2J\x1b[10;20H\x1b[Khello\x1b]0;title\x07")))
}

func TestStyleSurvivesFlush(t *testing.T) {
	p := NewParser()
	perf := NewPerformer()

	p.Advance(perf, []byte("\x1b[31ma"))
	perf.Flush()
	first := perf.Take()
	require.Len(t, first, 1)

	p.Advance(perf, []byte("b"))
	perf.Flush()
	second := perf.Take()
	require.Len(t, second, 1)

	// flushing emits the run but keeps the active style
	assert.Equal(t, Style{FG: Red}, second[0].Style)
}

func TestFlushEmptyBufferEmitsNothing(t *testing.T) {
	perf := NewPerformer()
	perf.Flush()
	assert.Nil(t, perf.Take())

	// SGR-only input produces no spans either
	assert.Empty(t, decode("\x1b[31m\x1b[0m"))
}

func TestCoalescedWritesSingleSpan(t *testing.T) {
	// two chunks fed inside one flush window come out as one run
	p := NewParser()
	perf := NewPerformer()
	p.Advance(perf, []byte("a"))
	p.Advance(perf, []byte("b"))
	perf.Flush()
	spans := perf.Take()
	require.Len(t, spans, 1)
	assert.Equal(t, "ab", spans[0].Text)
}

func TestPendingCRAcrossFlush(t *testing.T) {
	// a flush between \r and the overwriting print: already-delivered
	// text stands, the overwrite applies to the new buffer only
	p := NewParser()
	perf := NewPerformer()
	p.Advance(perf, []byte("abc\r"))
	perf.Flush()
	_ = perf.Take()
	p.Advance(perf, []byte("XY"))
	perf.Flush()
	spans := perf.Take()
	require.Len(t, spans, 1)
	assert.Equal(t, "XY", spans[0].Text)
}
