package dashboard

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the dashboard.
var (
	colorRed   = lipgloss.Color("#FF5555")
	colorGreen = lipgloss.Color("#50FA7B")
	colorGray  = lipgloss.Color("#666666")
	colorWhite = lipgloss.Color("#FFFFFF")
	colorCyan  = lipgloss.Color("#8BE9FD")
)

// Base styles reused by the view.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	liveBadgeStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	doneBadgeStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	habitNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	goodStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	alertStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
