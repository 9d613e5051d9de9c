package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#E8772E") // Orange - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, circuits on
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	WarningColor = lipgloss.Color("#FFA500") // Amber - warnings, stale data
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info, circuits off
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

var (
	// HeaderTitleStyle is for the main title (e.g., "HEATER STATUS")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "bobil status")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Host:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningTitleStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(22)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)

	// CircuitOnStyle and CircuitOffStyle render heating status values
	CircuitOnStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)
	CircuitOffStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// UnknownStyle is for measurements the heater did not report
	UnknownStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)
)

// Status markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _ := WriterWidth(os.Stdout)
	return width
}

// WriterWidth returns the render width for w and whether w is a terminal.
// Anything that is not a terminal gets MinTerminalWidth.
func WriterWidth(w io.Writer) (width int, terminal bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return MinTerminalWidth, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth, true
	}
	if width > MaxContentWidth {
		return MaxContentWidth, true
	}
	return width, true
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// resultBoxStyle returns the double border used by result boxes
func resultBoxStyle(width int, color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}
