package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - healthy values
	ErrorColor   = lipgloss.Color("#FF5555") // Red - failed parameters, alarms
	WarningColor = lipgloss.Color("#FFA500") // Orange - quality flag
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	KeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	CountStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	FrameLineStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	AlarmLineStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	SectionStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Bold(true).
			MarginTop(1)
)

// FailureMarker prefixes error boxes
const FailureMarker = "✗"

// GetTerminalSize returns the current terminal width and height, clamped to
// the supported range.
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24
	}
	return clampWidth(width), height
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	w, _ := GetTerminalSize()
	return w
}

func clampWidth(w int) int {
	if w < MinTerminalWidth {
		return MinTerminalWidth
	}
	if w > MaxContentWidth {
		return MaxContentWidth
	}
	return w
}

// BoxStyle returns a rounded border box in color c
func BoxStyle(width int, c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Width(width-2).
		Padding(0, 1)
}
