package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF5F5F")
	ColorGreen   = lipgloss.Color("#5FFF87")
	ColorYellow  = lipgloss.Color("#FFFF87")
	ColorCyan    = lipgloss.Color("#5FFFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	PausedDotStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan).
			Underline(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DoneMarkStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	InterimTextStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	BufferTextStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ToastStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)
