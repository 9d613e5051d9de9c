package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header represents a command header with title, command, and parameters.
type Header struct {
	Title   string   // e.g., "HEATER STATUS"
	Command string   // e.g., "bobil status"
	Params  []Detail // e.g., {"Host", "192.168.4.1"}
	Width   int      // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Detail) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := clampWidth(h.Width)

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) > 0 {
		dividerWidth := width - 6 // Account for border and padding
		divider := lipgloss.NewStyle().PaddingLeft(2).Render(RenderHorizontalDivider(dividerWidth-2, "─"))

		paramLines := make([]string, 0, len(h.Params))
		for _, p := range h.Params {
			paramLines = append(paramLines, HeaderParamKeyStyle.Render(p.Key+":")+" "+HeaderParamValueStyle.Render(p.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(paramLines, "\n"))
	}

	return HeaderBorderStyle(width).Render(content)
}

// RenderPlain returns the header as unstyled lines
func (h *Header) RenderPlain() string {
	lines := []string{strings.ToUpper(h.Title), h.Command}
	for _, p := range h.Params {
		lines = append(lines, "  "+p.Key+": "+p.Value)
	}
	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
