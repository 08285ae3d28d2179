package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/tchow/agentdash/internal/agent"
	"github.com/tchow/agentdash/internal/history"
	"github.com/tchow/agentdash/internal/tts"
)

const sendTimeout = 2 * time.Minute

// chatEntry is one rendered conversation line.
type chatEntry struct {
	who  string
	text string
	at   time.Time
}

// agentReplyMsg carries the result of an async SendMessage.
type agentReplyMsg struct {
	agentName string
	text      string
	err       error
}

// agentConnectedMsg reports the outcome of the initial Connect.
type agentConnectedMsg struct {
	agentName string
	err       error
}

// ChatPanel is the Home tab: a conversation with the configured agent.
// History persistence and speech are optional collaborators; either may
// be nil.
type ChatPanel struct {
	agent   agent.Agent
	store   *history.Store
	speech  *tts.Service
	entries []chatEntry

	viewport viewport.Model
	input    textinput.Model
	waiting  bool

	width  int
	height int
}

func NewChatPanel(ag agent.Agent, store *history.Store, speech *tts.Service) *ChatPanel {
	input := textinput.New()
	input.Placeholder = "message the agent, enter to send"
	input.Prompt = "> "

	p := &ChatPanel{
		agent:    ag,
		store:    store,
		speech:   speech,
		viewport: viewport.New(0, 0),
		input:    input,
	}
	p.loadHistory()
	return p
}

// loadHistory seeds the conversation from the store so restarts keep
// context on screen.
func (p *ChatPanel) loadHistory() {
	if p.store == nil || p.agent == nil {
		return
	}
	messages, err := p.store.Recent(p.agent.Name(), 50)
	if err != nil {
		uiLog.Warn("history_load_failed", slog.String("error", err.Error()))
		return
	}
	for _, m := range messages {
		who := "you"
		if m.Direction == history.DirectionReceived {
			who = m.AgentName
		}
		p.entries = append(p.entries, chatEntry{who: who, text: m.Content, at: m.Timestamp})
	}
}

// ConnectCmd probes the agent in the background.
func (p *ChatPanel) ConnectCmd() tea.Cmd {
	if p.agent == nil {
		return nil
	}
	ag := p.agent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return agentConnectedMsg{agentName: ag.Name(), err: ag.Connect(ctx)}
	}
}

// Submit sends the typed message. The network call runs as a command so
// the UI stays responsive.
func (p *ChatPanel) Submit() tea.Cmd {
	text := strings.TrimSpace(p.input.Value())
	if text == "" || p.waiting {
		return nil
	}
	p.input.Reset()

	if p.agent == nil {
		p.append(chatEntry{who: "system", text: "no agent configured", at: time.Now()})
		return nil
	}

	p.append(chatEntry{who: "you", text: text, at: time.Now()})
	p.persist(text, history.DirectionSent)
	p.waiting = true

	ag := p.agent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		reply, err := ag.SendMessage(ctx, text)
		return agentReplyMsg{agentName: ag.Name(), text: reply, err: err}
	}
}

// HandleReply folds an async reply into the conversation.
func (p *ChatPanel) HandleReply(msg agentReplyMsg) {
	p.waiting = false
	if msg.err != nil {
		p.append(chatEntry{who: "system", text: fmt.Sprintf("error: %v", msg.err), at: time.Now()})
		return
	}
	p.append(chatEntry{who: msg.agentName, text: msg.text, at: time.Now()})
	p.persist(msg.text, history.DirectionReceived)
	if p.speech != nil {
		if err := p.speech.Speak(msg.text); err != nil {
			uiLog.Warn("tts_enqueue_failed", slog.String("error", err.Error()))
		}
	}
}

func (p *ChatPanel) append(e chatEntry) {
	p.entries = append(p.entries, e)
	p.viewport.SetContent(p.renderEntries())
	p.viewport.GotoBottom()
}

func (p *ChatPanel) persist(content string, dir history.Direction) {
	if p.store == nil || p.agent == nil {
		return
	}
	err := p.store.Save(history.Message{
		ID:        agent.NewMessageID(),
		AgentName: p.agent.Name(),
		Content:   content,
		Direction: dir,
		Timestamp: time.Now(),
	})
	if err != nil {
		uiLog.Warn("history_save_failed", slog.String("error", err.Error()))
	}
}

func (p *ChatPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = width - 4
	p.viewport.Width = width
	p.viewport.Height = height - 2
	p.viewport.SetContent(p.renderEntries())
	p.viewport.GotoBottom()
}

func (p *ChatPanel) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	cmds = append(cmds, cmd)
	p.viewport, cmd = p.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (p *ChatPanel) Focus() { p.input.Focus() }
func (p *ChatPanel) Blur()  { p.input.Blur() }

func (p *ChatPanel) renderEntries() string {
	var b strings.Builder
	for _, e := range p.entries {
		who := ChatUserStyle.Render(e.who)
		if e.who != "you" {
			who = ChatAgentStyle.Render(e.who)
		}
		ts := ChatTimeStyle.Render(e.at.Format("15:04"))
		b.WriteString(fmt.Sprintf("%s %s\n", who, ts))
		for _, line := range strings.Split(e.text, "\n") {
			b.WriteString(runewidth.Truncate(line, p.width, "…"))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if p.waiting {
		b.WriteString(DimStyle.Render("thinking…"))
		b.WriteByte('\n')
	}
	return b.String()
}

// LastReply returns the most recent agent message, or empty.
func (p *ChatPanel) LastReply() string {
	for i := len(p.entries) - 1; i >= 0; i-- {
		if p.entries[i].who != "you" && p.entries[i].who != "system" {
			return p.entries[i].text
		}
	}
	return ""
}

// StatusLabel summarizes the agent connection for the tab bar.
func (p *ChatPanel) StatusLabel() string {
	if p.agent == nil {
		return DimStyle.Render("no agent")
	}
	status, detail := p.agent.Status()
	label := p.agent.Name() + " " + status.String()
	switch status {
	case agent.StatusConnected:
		return StatusConnectedStyle.Render(label)
	case agent.StatusConnecting:
		return StatusConnectingStyle.Render(label)
	case agent.StatusError:
		if detail != "" {
			label += " (" + detail + ")"
		}
		return StatusErrorStyle.Render(label)
	default:
		return StatusDisconnectedStyle.Render(label)
	}
}

func (p *ChatPanel) View() string {
	return p.viewport.View() + "\n" + p.input.View()
}
