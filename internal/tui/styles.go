package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed     = lipgloss.Color("#FF0000")
	colorGreen   = lipgloss.Color("#00FF00")
	colorYellow  = lipgloss.Color("#FFFF00")
	colorCyan    = lipgloss.Color("#00FFFF")
	colorGray    = lipgloss.Color("#666666")
	colorDimGray = lipgloss.Color("#444444")
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listeningStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	idleStyle      = lipgloss.NewStyle().Foreground(colorGray)
	readyStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	busyStyle      = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(colorGray)
	footerKeyStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	dividerStyle   = lipgloss.NewStyle().Foreground(colorDimGray)
	textStyle      = lipgloss.NewStyle()
)
