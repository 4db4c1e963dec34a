package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed     = lipgloss.Color("#FF5555")
	colorGreen   = lipgloss.Color("#50FA7B")
	colorYellow  = lipgloss.Color("#F1FA8C")
	colorCyan    = lipgloss.Color("#8BE9FD")
	colorGray    = lipgloss.Color("#666666")
	colorDimGray = lipgloss.Color("#444444")
	colorMagenta = lipgloss.Color("#FF79C6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	recordingDotStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	idleDotStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	listeningDotStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	haltedDotStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	userTurnStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	assistantTurnStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	pendingTurnStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDimGray)

	levelGreenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	levelYellowStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	levelGrayStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorMagenta)
)
