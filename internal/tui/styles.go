package tui

import "github.com/charmbracelet/lipgloss"

// Gruvbox palette.
var (
	Accent     = lipgloss.Color("#458588")
	Muted      = lipgloss.Color("#928374")
	Foreground = lipgloss.Color("#cccccc")
	Selected   = lipgloss.Color("#ebdbb2")
	OnSelected = lipgloss.Color("#000000")
	Error      = lipgloss.Color("#fb4934")
)

var (
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent).
			PaddingRight(1)

	InputBarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(Accent).
			MarginBottom(1)

	ItemStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(OnSelected).
				Background(Selected).
				Padding(0, 1)

	StatusStyle = lipgloss.NewStyle().
			Foreground(Muted).
			MarginTop(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)
)
