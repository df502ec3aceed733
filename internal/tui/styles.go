package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	colorRed     = lipgloss.Color("#FF5555")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorGray    = lipgloss.Color("#6272A4")
	colorDimGray = lipgloss.Color("#44475A")
	colorWhite   = lipgloss.Color("#F8F8F2")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	recordingStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	textStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	translationStyle = lipgloss.NewStyle().
				Foreground(colorCyan).
				Italic(true)

	interimStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	levelOnStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	levelHighStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	levelOffStyle = lipgloss.NewStyle().
			Foreground(colorDimGray)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDimGray)

	statusStyles = map[string]lipgloss.Style{
		"info":    lipgloss.NewStyle().Foreground(colorCyan),
		"success": lipgloss.NewStyle().Foreground(colorGreen),
		"warning": lipgloss.NewStyle().Foreground(colorYellow),
		"error":   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)
