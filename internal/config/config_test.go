package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempHome points the config dir at a temp dir and clears the cache.
func useTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
	return dir
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	useTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, 24, cfg.Terminal.Rows)
	assert.Equal(t, 80, cfg.Terminal.Cols)
	assert.NotEmpty(t, cfg.Terminal.Command)
	assert.True(t, cfg.History.Enabled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	useTempHome(t)

	cfg := Default()
	cfg.Terminal.Command = "htop"
	cfg.UI.Theme = "light"
	cfg.Agents = []AgentConfig{{Name: "local", Type: "ollama", Host: "http://localhost:11434", Model: "llama3"}}
	cfg.TTS.Enabled = true

	require.NoError(t, Save(&cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "htop", loaded.Terminal.Command)
	assert.Equal(t, "light", loaded.UI.Theme)
	require.Len(t, loaded.Agents, 1)
	assert.Equal(t, "llama3", loaded.Agents[0].Model)
	assert.True(t, loaded.TTS.Enabled)
}

func TestLoadCaches(t *testing.T) {
	useTempHome(t)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	dir := useTempHome(t)

	_, err := Load()
	require.NoError(t, err)

	raw := "[terminal]\ncommand = \"watch date\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(raw), 0o600))

	cfg, err := Reload()
	require.NoError(t, err)
	assert.Equal(t, "watch date", cfg.Terminal.Command)
	// unspecified fields fall back to defaults
	assert.Equal(t, 24, cfg.Terminal.Rows)
}

func TestLoadMalformedFileFallsBack(t *testing.T) {
	dir := useTempHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("terminal = {{{"), 0o600))

	cfg, err := Load()
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := useTempHome(t)

	cfg := Default()
	require.NoError(t, Save(&cfg))

	// no temp file left behind
	_, err := os.Stat(filepath.Join(dir, FileName+".tmp"))
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), ExpandTilde("~/x"))
	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, "/abs/path", ExpandTilde("/abs/path"))
	// traversal out of home is refused
	assert.Equal(t, "~/../../etc/passwd", ExpandTilde("~/../../etc/passwd"))
}
