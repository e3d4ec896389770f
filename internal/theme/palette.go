package theme

import "github.com/charmbracelet/lipgloss"

var (
	lightForeground = lipgloss.Color("#101F38")
	lightMuted      = lipgloss.Color("#6b7280")
	darkForeground  = lipgloss.Color("#f2f2f2")
	darkMuted       = lipgloss.Color("#9ca3af")

	successColor = lipgloss.Color("#22c55e")
	errorColor   = lipgloss.Color("#ef4444")
	accentLight  = lipgloss.Color("#1d4ed8")
	accentDark   = lipgloss.Color("#f59e0b")
)

// Palette styles terminal output for one theme
type Palette struct {
	Theme   Theme
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

// PaletteFor returns the terminal palette of t
func PaletteFor(t Theme) Palette {
	fg, muted, accent := lightForeground, lightMuted, accentLight
	if t == Dark {
		fg, muted, accent = darkForeground, darkMuted, accentDark
	}

	return Palette{
		Theme:   t,
		Text:    lipgloss.NewStyle().Foreground(fg),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Accent:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		Success: lipgloss.NewStyle().Foreground(successColor).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
}
