package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codey/markdown"
	"github.com/fwojciec/codey/palette"
)

// Styles maps a Palette to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg   lipgloss.Style
	UserBg    lipgloss.Style
	Chip      lipgloss.Style
	Notice    lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	Selected  lipgloss.Style
	CodeFrame lipgloss.Style
	CodeFocus lipgloss.Style
	Header    lipgloss.Style
	Sidebar   lipgloss.Style
	Markdown  markdown.Styles
}

// NewStyles creates Styles from a Palette. Semantic colors (error, success,
// muted) use the terminal's ANSI palette; the accent follows the theme.
func NewStyles(p palette.Palette) Styles {
	muted := lipgloss.Color("8")
	return Styles{
		UserMsg:   lipgloss.NewStyle().Foreground(p.Light).Bold(true),
		UserBg:    lipgloss.NewStyle().Background(lipgloss.Color("0")).PaddingLeft(1),
		Chip:      lipgloss.NewStyle().Foreground(p.OnAccent).Background(p.Dark).Padding(0, 1),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Muted:     lipgloss.NewStyle().Foreground(muted).Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(p.Base).Bold(true),
		Selected:  lipgloss.NewStyle().Foreground(p.OnAccent).Background(p.Base),
		CodeFrame: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
		CodeFocus: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Base).Padding(0, 1),
		Header:    lipgloss.NewStyle().Foreground(p.OnAccent).Background(p.Dark).Bold(true).Padding(0, 1),
		Sidebar:   lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(muted).PaddingRight(1),
		Markdown:  markdown.NewStyles(p.Base, muted),
	}
}
