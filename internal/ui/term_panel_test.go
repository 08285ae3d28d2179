package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tchow/agentdash/internal/term"
)

func newBarePanel() *TermPanel {
	return &TermPanel{lines: []renderedLine{{}}, width: 80, height: 24}
}

func lineText(line renderedLine) string {
	var b strings.Builder
	for _, sp := range line.spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

func TestAppendSplitsOnNewline(t *testing.T) {
	p := newBarePanel()
	p.appendLine(term.StyledLine([]term.Span{{Text: "one\ntwo\nthree"}}))

	require.Len(t, p.lines, 3)
	assert.Equal(t, "one", lineText(p.lines[0]))
	assert.Equal(t, "two", lineText(p.lines[1]))
	assert.Equal(t, "three", lineText(p.lines[2]))
}

func TestAppendContinuesCurrentLine(t *testing.T) {
	p := newBarePanel()
	p.appendLine(term.StyledLine([]term.Span{{Text: "par"}}))
	p.appendLine(term.StyledLine([]term.Span{{Text: "tial\n"}}))

	require.Len(t, p.lines, 2)
	assert.Equal(t, "partial", lineText(p.lines[0]))
	assert.Equal(t, "", lineText(p.lines[1]))
}

func TestAppendKeepsStylePerSpan(t *testing.T) {
	p := newBarePanel()
	bold := term.Style{Bold: true, FG: term.Green}
	p.appendLine(term.StyledLine([]term.Span{
		{Text: "a"},
		{Text: "b", Style: bold},
	}))

	require.Len(t, p.lines, 1)
	require.Len(t, p.lines[0].spans, 2)
	assert.Equal(t, term.Style{}, p.lines[0].spans[0].Style)
	assert.Equal(t, bold, p.lines[0].spans[1].Style)
}

func TestAppendStderrRow(t *testing.T) {
	p := newBarePanel()
	p.appendLine(term.StderrLine("spawn failed"))

	require.GreaterOrEqual(t, len(p.lines), 2)
	assert.Equal(t, "spawn failed", p.lines[len(p.lines)-2].stderr)
}

func TestScrollbackTrimmed(t *testing.T) {
	p := newBarePanel()
	var b strings.Builder
	for i := 0; i < maxScrollback+100; i++ {
		b.WriteString("line\n")
	}
	p.appendLine(term.StyledLine([]term.Span{{Text: b.String()}}))

	assert.LessOrEqual(t, len(p.lines), maxScrollback)
}

func TestViewRendersTail(t *testing.T) {
	p := newBarePanel()
	p.height = 5
	p.appendLine(term.StyledLine([]term.Span{{Text: "first\nsecond\nthird\nfourth\nfifth\n"}}))

	view := p.View()
	assert.Contains(t, view, "fifth")
	assert.NotContains(t, view, "first")
}
