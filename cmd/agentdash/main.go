package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tchow/agentdash/internal/agent"
	"github.com/tchow/agentdash/internal/config"
	"github.com/tchow/agentdash/internal/history"
	"github.com/tchow/agentdash/internal/logging"
	"github.com/tchow/agentdash/internal/tts"
	"github.com/tchow/agentdash/internal/ui"
	"github.com/tchow/agentdash/internal/web"
)

const Version = "0.3.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("agentdash v%s\n", Version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	var (
		cmdFlag   = flag.String("cmd", "", "shell command for the terminal tab (default from config)")
		rowsFlag  = flag.Int("rows", 0, "initial PTY rows (default from terminal size)")
		colsFlag  = flag.Int("cols", 0, "initial PTY cols (default from terminal size)")
		webFlag   = flag.Bool("web", false, "serve the web terminal bridge")
		debugFlag = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	initColorProfile()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
	}
	applyFlags(cfg, *cmdFlag, *rowsFlag, *colsFlag, *webFlag)

	baseDir, dirErr := config.Dir()
	logCfg := logging.Config{
		Level:        cfg.Logs.Level,
		Format:       cfg.Logs.Format,
		PprofEnabled: cfg.Logs.Pprof,
		Debug:        *debugFlag,
	}
	if dirErr == nil && (*debugFlag || cfg.Logs.Level == "debug") {
		logCfg.LogDir = baseDir
	}
	logging.Init(logCfg)
	defer logging.Shutdown()

	// SIGUSR1 dumps the ring buffer for post-mortem debugging
	if dirErr == nil {
		usr1Chan := make(chan os.Signal, 1)
		signal.Notify(usr1Chan, syscall.SIGUSR1)
		go func() {
			for range usr1Chan {
				dumpPath := filepath.Join(baseDir, fmt.Sprintf("crash-dump-%d.jsonl", time.Now().Unix()))
				if err := logging.DumpRingBuffer(dumpPath); err != nil {
					logging.ForComponent(logging.CompUI).Error("crash_dump_failed",
						slog.String("error", err.Error()))
				}
			}
		}()
	}

	ui.InitTheme(resolveTheme(cfg.UI.Theme))

	opts := buildCollaborators(cfg)
	defer func() {
		if opts.Store != nil {
			opts.Store.Close()
		}
	}()

	app := ui.NewApp(cfg, opts)
	program := tea.NewProgram(app, tea.WithAltScreen())

	var g errgroup.Group

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(web.Config{
			ListenAddr: cfg.Web.ListenAddr,
			Token:      cfg.Web.Token,
			Command:    cfg.Terminal.Command,
			Rows:       uint16(cfg.Terminal.Rows),
			Cols:       uint16(cfg.Terminal.Cols),
		}, opts.Store)
		g.Go(func() error {
			err := webServer.Start()
			if err != nil {
				// the TUI owns the screen, so a web failure ends the run
				program.Quit()
			}
			return err
		})
	}

	g.Go(func() error {
		_, err := program.Run()
		if webServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = webServer.Shutdown(shutdownCtx)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags folds command-line overrides into the loaded config.
// Unset geometry falls back to the hosting terminal's size.
func applyFlags(cfg *config.Config, cmd string, rows, cols int, webEnabled bool) {
	if cmd != "" {
		cfg.Terminal.Command = cmd
	}
	if rows > 0 {
		cfg.Terminal.Rows = rows
	}
	if cols > 0 {
		cfg.Terminal.Cols = cols
	}
	if webEnabled {
		cfg.Web.Enabled = true
	}

	if cfg.Terminal.Rows == 0 || cfg.Terminal.Cols == 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if cfg.Terminal.Cols == 0 {
				cfg.Terminal.Cols = w
			}
			if cfg.Terminal.Rows == 0 {
				cfg.Terminal.Rows = h
			}
		}
	}
	if cfg.Terminal.Rows == 0 {
		cfg.Terminal.Rows = 24
	}
	if cfg.Terminal.Cols == 0 {
		cfg.Terminal.Cols = 80
	}
}

// buildCollaborators wires the optional services the UI uses: agent,
// history store, speech, config and theme watchers. Each failure
// degrades to a nil collaborator instead of aborting startup.
func buildCollaborators(cfg *config.Config) ui.Options {
	var opts ui.Options

	if len(cfg.Agents) > 0 {
		ag, err := agent.New(cfg.Agents[0])
		if err != nil {
			logging.ForComponent(logging.CompAgent).Warn("agent_config_invalid",
				slog.String("error", err.Error()))
		} else {
			opts.Agent = ag
		}
	}

	if cfg.History.Enabled {
		if dir, err := config.Dir(); err == nil {
			store, err := history.Open(filepath.Join(dir, "history.db"))
			if err != nil {
				logging.ForComponent(logging.CompHistory).Warn("history_open_failed",
					slog.String("error", err.Error()))
			} else {
				opts.Store = store
				if cfg.History.MaxMessages > 0 {
					if _, err := store.Prune(cfg.History.MaxMessages); err != nil {
						logging.ForComponent(logging.CompHistory).Warn("history_prune_failed",
							slog.String("error", err.Error()))
					}
				}
			}
		}
	}

	if cfg.TTS.Enabled {
		opts.Speech = tts.NewService(cfg.TTS)
	}

	if watcher, err := config.NewWatcher(); err == nil && watcher != nil {
		opts.ConfigWatcher = watcher
	}

	if cfg.UI.Theme == "system" {
		opts.ThemeWatcher = ui.NewThemeWatcher(context.Background())
	}

	return opts
}

// resolveTheme maps "system" to a concrete palette for first paint; the
// theme watcher takes over live changes afterwards.
func resolveTheme(theme string) string {
	if theme == "light" {
		return "light"
	}
	return "dark"
}

// initColorProfile configures the lipgloss color profile. Honors an
// AGENTDASH_COLOR override, otherwise prefers TrueColor when the
// terminal hints at support and falls back to ANSI256.
func initColorProfile() {
	if colorEnv := os.Getenv("AGENTDASH_COLOR"); colorEnv != "" {
		switch strings.ToLower(colorEnv) {
		case "truecolor", "true", "24bit":
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		case "256", "ansi256":
			lipgloss.SetColorProfile(termenv.ANSI256)
			return
		case "16", "ansi", "basic":
			lipgloss.SetColorProfile(termenv.ANSI)
			return
		case "none", "off", "ascii":
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
	}

	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	termName := os.Getenv("TERM")
	for _, t := range []string{
		"xterm-256color", "screen-256color", "tmux-256color",
		"xterm-direct", "alacritty", "kitty", "wezterm",
	} {
		if strings.Contains(termName, t) {
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		}
	}

	lipgloss.SetColorProfile(termenv.ANSI256)
}

func printHelp() {
	fmt.Printf(`agentdash v%s - terminal dashboard with chat agents

Usage:
  agentdash [flags]
  agentdash version

Flags:
  -cmd string   shell command for the terminal tab
  -rows int     initial PTY rows
  -cols int     initial PTY cols
  -web          serve the web terminal bridge
  -debug        enable debug logging

Config lives at ~/.agentdash/config.toml (override with %s).
`, Version, config.EnvHome)
}
