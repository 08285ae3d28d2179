package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tchow/agentdash/internal/term"
)

// maxScrollback bounds the retained transcript.
const maxScrollback = 2000

// renderedLine is one transcript row. nil spans with a non-empty stderr
// field is a diagnostic row.
type renderedLine struct {
	spans  []term.Span
	stderr string
}

// TermPanel owns one PTY session and its transcript. The app drains the
// session's output channel once per tick frame so rendering never
// blocks on the PTY.
type TermPanel struct {
	command string
	size    term.Size

	session *term.Session
	closed  bool // output channel closed, session gone

	lines []renderedLine
	input textinput.Model

	width  int
	height int
}

// NewTermPanel spawns the shell session. A spawn failure becomes a
// diagnostic row instead of an error return so the tab still renders.
func NewTermPanel(command string, size term.Size) *TermPanel {
	input := textinput.New()
	input.Placeholder = "type a command, enter to send"
	input.Prompt = "> "
	input.Focus()

	p := &TermPanel{
		command: command,
		size:    size,
		lines:   []renderedLine{{}},
		input:   input,
	}
	p.spawn()
	return p
}

func (p *TermPanel) spawn() {
	sess, err := term.Spawn(p.command, p.size)
	if err != nil {
		p.session = nil
		p.closed = true
		p.appendStderr(fmt.Sprintf("spawn failed: %v", err))
		uiLog.Error("term_spawn_failed", slog.String("error", err.Error()))
		return
	}
	p.session = sess
	p.closed = false
}

// Drain pulls every batch already buffered by the session without
// blocking. Returns true if any new output arrived.
func (p *TermPanel) Drain() bool {
	if p.session == nil {
		return false
	}
	dirty := false
	for {
		select {
		case line, ok := <-p.session.Lines():
			if !ok {
				p.closed = true
				p.appendStderr("session ended")
				p.session.Close()
				p.session = nil
				return true
			}
			p.appendLine(line)
			dirty = true
		default:
			return dirty
		}
	}
}

func (p *TermPanel) appendLine(line term.Line) {
	if line.Stderr != "" {
		p.appendStderr(line.Stderr)
		return
	}
	for _, sp := range line.Spans {
		parts := strings.Split(sp.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				p.lines = append(p.lines, renderedLine{})
			}
			if part == "" {
				continue
			}
			last := len(p.lines) - 1
			p.lines[last].spans = append(p.lines[last].spans, term.Span{Text: part, Style: sp.Style})
		}
	}
	p.trim()
}

func (p *TermPanel) appendStderr(msg string) {
	p.lines = append(p.lines, renderedLine{stderr: msg}, renderedLine{})
	p.trim()
}

func (p *TermPanel) trim() {
	if len(p.lines) > maxScrollback {
		p.lines = p.lines[len(p.lines)-maxScrollback:]
	}
}

// SendLine submits the input line to the child with a trailing newline.
func (p *TermPanel) SendLine() {
	text := p.input.Value()
	p.input.Reset()
	if p.session == nil {
		p.appendStderr("no session, ctrl+r to restart")
		return
	}
	if err := p.session.Send(text + "\n"); err != nil {
		p.appendStderr(fmt.Sprintf("send failed: %v", err))
	}
}

// Reset tears the session down and starts a fresh one with an empty
// transcript.
func (p *TermPanel) Reset() {
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
	p.lines = []renderedLine{{}}
	p.spawn()
}

// SetSize updates the layout and propagates the new grid to the PTY.
func (p *TermPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = width - 4

	rows, cols := height-3, width-2
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	p.size = term.Size{Rows: uint16(rows), Cols: uint16(cols)}
	if p.session != nil {
		if err := p.session.Resize(p.size); err != nil {
			uiLog.Warn("term_resize_failed", slog.String("error", err.Error()))
		}
	}
}

func (p *TermPanel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// Running reports whether the child is still attached.
func (p *TermPanel) Running() bool {
	return p.session != nil && !p.closed
}

func (p *TermPanel) Close() {
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
	p.closed = true
}

func (p *TermPanel) View() string {
	contentHeight := p.height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	start := len(p.lines) - contentHeight
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for i := start; i < len(p.lines); i++ {
		b.WriteString(p.renderLine(p.lines[i]))
		b.WriteByte('\n')
	}
	for i := len(p.lines) - start; i < contentHeight; i++ {
		b.WriteByte('\n')
	}
	b.WriteString(p.input.View())
	return b.String()
}

func (p *TermPanel) renderLine(line renderedLine) string {
	if line.stderr != "" {
		return StderrStyle.Render(runewidth.Truncate("! "+line.stderr, p.width, "…"))
	}
	var b strings.Builder
	remaining := p.width
	for _, sp := range line.spans {
		if remaining <= 0 {
			break
		}
		text := runewidth.Truncate(sp.Text, remaining, "")
		remaining -= runewidth.StringWidth(text)
		b.WriteString(SpanStyle(sp.Style).Render(text))
	}
	return b.String()
}

// TranscriptTail returns the last n transcript lines as plain text.
func (p *TermPanel) TranscriptTail(n int) string {
	start := len(p.lines) - n
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for i := start; i < len(p.lines); i++ {
		line := p.lines[i]
		if line.stderr != "" {
			b.WriteString(line.stderr)
		} else {
			for _, sp := range line.spans {
				b.WriteString(sp.Text)
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatusLabel summarizes the session for the tab bar.
func (p *TermPanel) StatusLabel() string {
	if p.Running() {
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("●") + " " + p.command
	}
	return DimStyle.Render("○ " + p.command)
}
