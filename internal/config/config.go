package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileName is the TOML config file for user preferences.
const FileName = "config.toml"

// EnvHome overrides the config directory (useful for tests and multiple
// side-by-side setups).
const EnvHome = "AGENTDASH_HOME"

// Config is the user-facing configuration, stored as TOML at
// ~/.agentdash/config.toml.
type Config struct {
	Terminal TerminalConfig `toml:"terminal"`
	UI       UIConfig       `toml:"ui"`
	Agents   []AgentConfig  `toml:"agents"`
	TTS      TTSConfig      `toml:"tts"`
	History  HistoryConfig  `toml:"history"`
	Web      WebConfig      `toml:"web"`
	Logs     LogConfig      `toml:"logs"`
}

// TerminalConfig controls the embedded terminal session.
type TerminalConfig struct {
	// Command is run via `sh -c` when the terminal tab first renders
	// and on every reset.
	Command string `toml:"command"`

	// Rows/Cols are the initial PTY geometry. Zero means "derive from
	// the hosting panel".
	Rows int `toml:"rows"`
	Cols int `toml:"cols"`
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	// Theme sets the color scheme: "dark" (default), "light", or
	// "system" (tracks the OS setting live).
	Theme string `toml:"theme"`
}

// AgentConfig describes one configured chat agent.
type AgentConfig struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"` // currently only "ollama"
	Host  string `toml:"host"`
	Model string `toml:"model"`
}

// TTSConfig controls speech synthesis of agent replies.
type TTSConfig struct {
	Enabled bool    `toml:"enabled"`
	Voice   string  `toml:"voice"`
	Speed   float64 `toml:"speed"`
	Volume  float64 `toml:"volume"`
}

// HistoryConfig controls chat history persistence.
type HistoryConfig struct {
	Enabled     bool `toml:"enabled"`
	MaxMessages int  `toml:"max_messages"`
}

// WebConfig controls the optional web terminal bridge.
type WebConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
	Token      string `toml:"token"`
}

// LogConfig mirrors the logging package knobs exposed to users.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Pprof  bool   `toml:"pprof"`
}

var defaultConfig = Config{
	Terminal: TerminalConfig{Command: defaultShell(), Rows: 24, Cols: 80},
	UI:       UIConfig{Theme: "dark"},
	TTS:      TTSConfig{Voice: "default", Speed: 1.0, Volume: 0.8},
	History:  HistoryConfig{Enabled: true, MaxMessages: 500},
	Web:      WebConfig{ListenAddr: "127.0.0.1:8640"},
	Logs:     LogConfig{Level: "info"},
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "sh"
}

// Default returns a copy of the built-in defaults.
func Default() Config { return defaultConfig }

var (
	cache   *Config
	cacheMu sync.RWMutex
)

// Dir returns the agentdash home directory, creating it if necessary.
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".agentdash")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config, returning cached values after the first call.
// A missing file yields defaults; a malformed file yields defaults plus
// the parse error so the caller can surface it.
func Load() (*Config, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache != nil {
		return cache, nil
	}

	cfg := defaultConfig
	path, err := Path()
	if err != nil {
		cache = &cfg
		return cache, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cache = &cfg
		return cache, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		fallback := defaultConfig
		cache = &fallback
		return cache, fmt.Errorf("%s parse error: %w", FileName, err)
	}
	applyDefaults(&cfg)
	cache = &cfg
	return cache, nil
}

// Reload drops the cache and reads fresh values.
func Reload() (*Config, error) {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return Load()
}

func applyDefaults(cfg *Config) {
	if cfg.Terminal.Command == "" {
		cfg.Terminal.Command = defaultShell()
	}
	if cfg.Terminal.Rows <= 0 {
		cfg.Terminal.Rows = defaultConfig.Terminal.Rows
	}
	if cfg.Terminal.Cols <= 0 {
		cfg.Terminal.Cols = defaultConfig.Terminal.Cols
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaultConfig.UI.Theme
	}
	if cfg.TTS.Speed <= 0 {
		cfg.TTS.Speed = defaultConfig.TTS.Speed
	}
	if cfg.TTS.Volume <= 0 {
		cfg.TTS.Volume = defaultConfig.TTS.Volume
	}
	if cfg.History.MaxMessages <= 0 {
		cfg.History.MaxMessages = defaultConfig.History.MaxMessages
	}
	if cfg.Web.ListenAddr == "" {
		cfg.Web.ListenAddr = defaultConfig.Web.ListenAddr
	}
	if cfg.Logs.Level == "" {
		cfg.Logs.Level = defaultConfig.Logs.Level
	}
}

// Save writes the config atomically (temp file + rename) and drops the
// cache so the next Load sees fresh values.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# agentdash configuration\n")
	buf.WriteString("# Edit this file or use the settings panel in the TUI\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize config save: %w", err)
	}

	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return nil
}

// ExpandTilde expands a leading ~ to the user's home directory, refusing
// results that escape it.
func ExpandTilde(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	cleaned := filepath.Clean(filepath.Join(home, path[2:]))
	if !strings.HasPrefix(cleaned, home) {
		return path
	}
	return cleaned
}
