package ui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tchow/agentdash/internal/agent"
	"github.com/tchow/agentdash/internal/clipboard"
	"github.com/tchow/agentdash/internal/config"
	"github.com/tchow/agentdash/internal/history"
	"github.com/tchow/agentdash/internal/logging"
	"github.com/tchow/agentdash/internal/term"
	"github.com/tchow/agentdash/internal/tts"
)

var uiLog = logging.ForComponent(logging.CompUI)

// tickInterval drives transcript draining and status refresh. PTY
// output is already batched upstream, so a frame every 50ms is enough.
const tickInterval = 50 * time.Millisecond

type tickMsg time.Time

// themeChangedMsg is emitted when the OS switches dark mode.
type themeChangedMsg struct {
	dark bool
}

// configReloadedMsg is emitted when config.toml changes on disk.
type configReloadedMsg struct {
	cfg *config.Config
}

type tab int

const (
	tabHome tab = iota
	tabTerm
)

// App is the root bubbletea model: a Home chat tab and a Terminal tab.
type App struct {
	cfg *config.Config

	chat *ChatPanel
	term *TermPanel

	active tab
	width  int
	height int

	themeWatcher  *ThemeWatcher
	configWatcher *config.Watcher
	speech        *tts.Service
	store         *history.Store
}

// Options collects the optional collaborators main wires up.
type Options struct {
	Agent         agent.Agent
	Store         *history.Store
	Speech        *tts.Service
	ConfigWatcher *config.Watcher
	ThemeWatcher  *ThemeWatcher
}

func NewApp(cfg *config.Config, opts Options) *App {
	size := term.Size{
		Rows: uint16(cfg.Terminal.Rows),
		Cols: uint16(cfg.Terminal.Cols),
	}
	app := &App{
		cfg:           cfg,
		chat:          NewChatPanel(opts.Agent, opts.Store, opts.Speech),
		term:          NewTermPanel(cfg.Terminal.Command, size),
		themeWatcher:  opts.ThemeWatcher,
		configWatcher: opts.ConfigWatcher,
		speech:        opts.Speech,
		store:         opts.Store,
	}
	app.chat.Focus()
	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.tick(), textinput.Blink, a.chat.ConnectCmd())
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		panelHeight := a.height - 3
		a.chat.SetSize(a.width-2, panelHeight)
		a.term.SetSize(a.width-2, panelHeight)
		return a, nil

	case tickMsg:
		a.term.Drain()
		a.pollWatchers()
		return a, a.tick()

	case themeChangedMsg:
		theme := "dark"
		if !msg.dark {
			theme = "light"
		}
		InitTheme(theme)
		return a, nil

	case configReloadedMsg:
		a.cfg = msg.cfg
		if a.cfg.UI.Theme == "dark" || a.cfg.UI.Theme == "light" {
			InitTheme(a.cfg.UI.Theme)
		}
		return a, nil

	case agentConnectedMsg:
		if msg.err != nil {
			uiLog.Warn("agent_connect_failed",
				slog.String("agent", msg.agentName),
				slog.String("error", msg.err.Error()))
		}
		return a, nil

	case agentReplyMsg:
		a.chat.HandleReply(msg)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateActive(msg)
}

// pollWatchers folds watcher channels into the frame without blocking.
func (a *App) pollWatchers() {
	if a.themeWatcher != nil {
		select {
		case dark := <-a.themeWatcher.ChangeChannel():
			theme := "light"
			if dark {
				theme = "dark"
			}
			if a.cfg.UI.Theme == "system" {
				InitTheme(theme)
			}
		default:
		}
	}
	if a.configWatcher != nil {
		select {
		case <-a.configWatcher.Reloads():
			cfg, err := config.Reload()
			if err == nil {
				a.cfg = cfg
				if cfg.UI.Theme == "dark" || cfg.UI.Theme == "light" {
					InitTheme(cfg.UI.Theme)
				}
			}
		default:
		}
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.shutdown()
		return a, tea.Quit

	case "tab":
		if a.active == tabHome {
			a.active = tabTerm
			a.chat.Blur()
			a.term.input.Focus()
		} else {
			a.active = tabHome
			a.term.input.Blur()
			a.chat.Focus()
		}
		return a, nil

	case "ctrl+r":
		if a.active == tabTerm {
			a.term.Reset()
			return a, nil
		}

	case "ctrl+s":
		if a.speech != nil {
			a.speech.Stop()
			return a, nil
		}

	case "ctrl+y":
		a.copyActive()
		return a, nil

	case "enter":
		if a.active == tabTerm {
			a.term.SendLine()
			return a, nil
		}
		return a, a.chat.Submit()
	}

	return a, a.updateActive(msg)
}

// copyActive copies the focused tab's content to the system clipboard:
// the last agent reply on Home, the transcript tail on Terminal.
func (a *App) copyActive() {
	var text string
	if a.active == tabHome {
		text = a.chat.LastReply()
	} else {
		text = a.term.TranscriptTail(100)
	}
	if text == "" {
		return
	}
	if res, err := clipboard.Copy(text); err != nil {
		uiLog.Warn("clipboard_copy_failed", slog.String("error", err.Error()))
	} else {
		uiLog.Info("clipboard_copied",
			slog.String("method", res.Method),
			slog.Int("bytes", res.ByteSize))
	}
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	if a.active == tabTerm {
		return a.term.Update(msg)
	}
	return a.chat.Update(msg)
}

// shutdown releases everything the app owns. Idempotent collaborators
// make repeated calls safe.
func (a *App) shutdown() {
	a.term.Close()
	if a.speech != nil {
		a.speech.Shutdown()
	}
	if a.themeWatcher != nil {
		a.themeWatcher.Close()
	}
	if a.configWatcher != nil {
		a.configWatcher.Close()
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	tabs := a.renderTabs()
	var panel string
	if a.active == tabTerm {
		panel = a.term.View()
	} else {
		panel = a.chat.View()
	}
	menu := a.renderMenu()

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		PanelStyle.Width(a.width-2).Render(panel),
		menu,
	)
}

func (a *App) renderTabs() string {
	home := TabStyle.Render("Home")
	termTab := TabStyle.Render("Terminal")
	if a.active == tabHome {
		home = TabActiveStyle.Render("Home")
	} else {
		termTab = TabActiveStyle.Render("Terminal")
	}

	var status string
	if a.active == tabHome {
		status = a.chat.StatusLabel()
	} else {
		status = a.term.StatusLabel()
	}

	left := home + termTab
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + status
}

func (a *App) renderMenu() string {
	items := []struct{ key, desc string }{
		{"tab", "switch"},
		{"enter", "send"},
		{"ctrl+r", "reset term"},
		{"ctrl+y", "copy"},
		{"ctrl+s", "stop speech"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, MenuKeyStyle.Render(it.key)+" "+MenuDescStyle.Render(it.desc))
	}
	return MenuBarStyle.Render(strings.Join(parts, "  ·  "))
}
