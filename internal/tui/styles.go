package tui

import "github.com/charmbracelet/lipgloss"

// Colors used by the meeting view.
var (
	ColorRed     = lipgloss.Color("#FF5555")
	ColorGreen   = lipgloss.Color("#50FA7B")
	ColorYellow  = lipgloss.Color("#F1FA8C")
	ColorBlue    = lipgloss.Color("#8BE9FD")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	ConnectedDotStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	DisconnectedDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	ActingAsStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	MetaStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	UserStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorDimGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)
