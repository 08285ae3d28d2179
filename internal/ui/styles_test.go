package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tchow/agentdash/internal/term"
)

func TestAnsiColorDefaultUnmapped(t *testing.T) {
	_, ok := AnsiColor(term.Default)
	assert.False(t, ok)
}

func TestAnsiColorPalette(t *testing.T) {
	c, ok := AnsiColor(term.Red)
	assert.True(t, ok)
	assert.Equal(t, ansiPalette[1], c)

	c, ok = AnsiColor(term.BrightWhite)
	assert.True(t, ok)
	assert.Equal(t, ansiPalette[15], c)
}

func TestSpanStyleZeroValueIsPlain(t *testing.T) {
	style := SpanStyle(term.Style{})
	assert.Equal(t, "plain", style.Render("plain"))
}

func TestInitThemeSwitchesPalette(t *testing.T) {
	InitTheme("light")
	assert.Equal(t, ThemeLight, GetCurrentTheme())
	assert.Equal(t, lightColors.Text, ColorText)

	InitTheme("dark")
	assert.Equal(t, ThemeDark, GetCurrentTheme())
	assert.Equal(t, darkColors.Text, ColorText)
}

func TestInitThemeUnknownFallsBackToDark(t *testing.T) {
	InitTheme("solarized")
	assert.Equal(t, ThemeDark, GetCurrentTheme())
}
