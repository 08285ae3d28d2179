package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tchow/agentdash/internal/term"
)

// Theme represents the current color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var currentTheme Theme = ThemeDark

// Dark Theme - Tokyo Night
var darkColors = struct {
	Bg, Surface, Border, Text, TextDim lipgloss.Color
	Accent, Purple, Cyan, Green        lipgloss.Color
	Yellow, Orange, Red                lipgloss.Color
}{
	Bg:      lipgloss.Color("#1a1b26"),
	Surface: lipgloss.Color("#24283b"),
	Border:  lipgloss.Color("#414868"),
	Text:    lipgloss.Color("#c0caf5"),
	TextDim: lipgloss.Color("#787fa0"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Purple:  lipgloss.Color("#bb9af7"),
	Cyan:    lipgloss.Color("#7dcfff"),
	Green:   lipgloss.Color("#9ece6a"),
	Yellow:  lipgloss.Color("#e0af68"),
	Orange:  lipgloss.Color("#ff9e64"),
	Red:     lipgloss.Color("#f7768e"),
}

// Light Theme - Tokyo Night Light variant
var lightColors = struct {
	Bg, Surface, Border, Text, TextDim lipgloss.Color
	Accent, Purple, Cyan, Green        lipgloss.Color
	Yellow, Orange, Red                lipgloss.Color
}{
	Bg:      lipgloss.Color("#d5d6db"),
	Surface: lipgloss.Color("#e9e9ec"),
	Border:  lipgloss.Color("#9699a3"),
	Text:    lipgloss.Color("#343b58"),
	TextDim: lipgloss.Color("#6a6d7c"),
	Accent:  lipgloss.Color("#34548a"),
	Purple:  lipgloss.Color("#7847bd"),
	Cyan:    lipgloss.Color("#166775"),
	Green:   lipgloss.Color("#485e30"),
	Yellow:  lipgloss.Color("#8f5e15"),
	Orange:  lipgloss.Color("#965027"),
	Red:     lipgloss.Color("#8c4351"),
}

// Active color variables (set by InitTheme)
var (
	ColorBg      lipgloss.Color
	ColorSurface lipgloss.Color
	ColorBorder  lipgloss.Color
	ColorText    lipgloss.Color
	ColorTextDim lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorPurple  lipgloss.Color
	ColorCyan    lipgloss.Color
	ColorGreen   lipgloss.Color
	ColorYellow  lipgloss.Color
	ColorOrange  lipgloss.Color
	ColorRed     lipgloss.Color
)

// themeMu protects global color/style variables during live theme switches.
var themeMu sync.RWMutex

// InitTheme sets the active color palette based on theme name.
// Must be called before any UI rendering.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()
	c := darkColors
	currentTheme = ThemeDark
	if theme == "light" {
		c = lightColors
		currentTheme = ThemeLight
	}
	ColorBg = c.Bg
	ColorSurface = c.Surface
	ColorBorder = c.Border
	ColorText = c.Text
	ColorTextDim = c.TextDim
	ColorAccent = c.Accent
	ColorPurple = c.Purple
	ColorCyan = c.Cyan
	ColorGreen = c.Green
	ColorYellow = c.Yellow
	ColorOrange = c.Orange
	ColorRed = c.Red
	initStyles()
}

// GetCurrentTheme returns the active theme
func GetCurrentTheme() Theme {
	return currentTheme
}

func init() {
	InitTheme("dark")
}

// Base Styles
var (
	TitleStyle     lipgloss.Style
	PanelStyle     lipgloss.Style
	HighlightStyle lipgloss.Style
	DimStyle       lipgloss.Style
	ErrorStyle     lipgloss.Style
	StderrStyle    lipgloss.Style
)

// Tab Bar Styles
var (
	TabStyle       lipgloss.Style
	TabActiveStyle lipgloss.Style
)

// Menu Bar Styles
var (
	MenuBarStyle  lipgloss.Style
	MenuKeyStyle  lipgloss.Style
	MenuDescStyle lipgloss.Style
)

// Chat Styles
var (
	ChatUserStyle  lipgloss.Style
	ChatAgentStyle lipgloss.Style
	ChatTimeStyle  lipgloss.Style
)

// Agent status indicator styles
var (
	StatusConnectedStyle    lipgloss.Style
	StatusConnectingStyle   lipgloss.Style
	StatusDisconnectedStyle lipgloss.Style
	StatusErrorStyle        lipgloss.Style
)

func initStyles() {
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	HighlightStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	DimStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)
	StderrStyle = lipgloss.NewStyle().Foreground(ColorRed)

	TabStyle = lipgloss.NewStyle().Foreground(ColorTextDim).Padding(0, 2)
	TabActiveStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Padding(0, 2).Underline(true)

	MenuBarStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
	MenuKeyStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	MenuDescStyle = lipgloss.NewStyle().Foreground(ColorTextDim)

	ChatUserStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	ChatAgentStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	ChatTimeStyle = lipgloss.NewStyle().Foreground(ColorTextDim)

	StatusConnectedStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	StatusConnectingStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	StatusDisconnectedStyle = lipgloss.NewStyle().Foreground(ColorTextDim)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)
}

// ansiPalette maps the 16 ANSI colors to Tokyo Night shades so styled
// terminal output matches the rest of the dashboard.
var ansiPalette = [16]lipgloss.Color{
	lipgloss.Color("#32344a"), // black
	lipgloss.Color("#f7768e"), // red
	lipgloss.Color("#9ece6a"), // green
	lipgloss.Color("#e0af68"), // yellow
	lipgloss.Color("#7aa2f7"), // blue
	lipgloss.Color("#ad8ee6"), // magenta
	lipgloss.Color("#449dab"), // cyan
	lipgloss.Color("#787c99"), // white
	lipgloss.Color("#444b6a"), // bright black
	lipgloss.Color("#ff7a93"), // bright red
	lipgloss.Color("#b9f27c"), // bright green
	lipgloss.Color("#ff9e64"), // bright yellow
	lipgloss.Color("#7da6ff"), // bright blue
	lipgloss.Color("#bb9af7"), // bright magenta
	lipgloss.Color("#0db9d7"), // bright cyan
	lipgloss.Color("#acb0d0"), // bright white
}

// AnsiColor resolves a parsed terminal color to a lipgloss color.
// Default colors return ok=false so the span inherits the panel style.
func AnsiColor(c term.Color) (lipgloss.Color, bool) {
	idx, ok := c.ANSIIndex()
	if !ok {
		return "", false
	}
	return ansiPalette[idx], true
}

// SpanStyle converts a parsed terminal style into a lipgloss style.
func SpanStyle(s term.Style) lipgloss.Style {
	style := lipgloss.NewStyle()
	if fg, ok := AnsiColor(s.FG); ok {
		style = style.Foreground(fg)
	}
	if bg, ok := AnsiColor(s.BG); ok {
		style = style.Background(bg)
	}
	if s.Bold {
		style = style.Bold(true)
	}
	if s.Italic {
		style = style.Italic(true)
	}
	if s.Underline {
		style = style.Underline(true)
	}
	return style
}
