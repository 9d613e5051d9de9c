package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bobil/internal/heater"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one key/value line of a result box. Details render in the order
// they were added.
type Detail struct {
	Key   string
	Value string
}

// Result represents a result box (success, failure, or warning)
type Result struct {
	Type            ResultType // Success, failure, or warning
	Title           string     // e.g., "Heater reachable"
	Details         []Detail   // Key-value details to display
	Error           error      // Error (for failure results)
	Troubleshooting []string   // Troubleshooting tips (for failure results)
	Width           int        // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string) *Result {
	return &Result{
		Type:  ResultSuccess,
		Title: title,
		Width: GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string) *Result {
	return &Result{
		Type:  ResultWarning,
		Title: title,
		Width: GetTerminalWidth(),
	}
}

// NewDeviceErrorResult builds a failure box from a heater error: the short
// message becomes the title and the troubleshooting hint becomes the tips.
func NewDeviceErrorResult(err error) *Result {
	return NewFailureResult(heater.GetShortErrorMessage(err), err, HintTips(heater.GetTroubleshootingHint(err)))
}

// HintTips extracts the bullet points of a troubleshooting hint.
func HintTips(hint string) []string {
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		line = strings.TrimSpace(line)
		if tip, ok := strings.CutPrefix(line, "•"); ok {
			tips = append(tips, strings.TrimSpace(tip))
		}
	}
	return tips
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := clampWidth(r.Width)

	lines := []string{"", r.titleLine(), ""}

	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}

	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width), "")
	}

	return resultBoxStyle(width, r.color()).Render(strings.Join(lines, "\n"))
}

func (r *Result) titleLine() string {
	marker, label := r.heading()
	text := fmt.Sprintf("   %s  %s  ─  %s", marker, label, r.Title)
	switch r.Type {
	case ResultFailure:
		return ErrorTitleStyle.Render(text)
	case ResultWarning:
		return WarningTitleStyle.Render(text)
	default:
		return SuccessTitleStyle.Render(text)
	}
}

func (r *Result) heading() (marker, label string) {
	switch r.Type {
	case ResultFailure:
		return FailureMarker, "FAILED"
	case ResultWarning:
		return WarningMarker, "WARNING"
	default:
		return SuccessMarker, "SUCCESS"
	}
}

// RenderPlain returns the result as unstyled lines without a box, for output
// that is not a terminal.
func (r *Result) RenderPlain() string {
	marker, label := r.heading()
	lines := []string{fmt.Sprintf("%s %s: %s", marker, label, r.Title)}
	for _, d := range r.Details {
		lines = append(lines, fmt.Sprintf("  %s: %s", d.Key, d.Value))
	}
	if r.Error != nil {
		lines = append(lines, "  Error: "+r.Error.Error())
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, "Troubleshooting:")
		for _, tip := range r.Troubleshooting {
			lines = append(lines, "  • "+tip)
		}
	}
	return strings.Join(lines, "\n")
}

func (r *Result) color() lipgloss.Color {
	switch r.Type {
	case ResultFailure:
		return ErrorColor
	case ResultWarning:
		return WarningColor
	default:
		return SuccessColor
	}
}

// renderTroubleshootingBox renders the inner troubleshooting box
func (r *Result) renderTroubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	innerWidth := width - 12 // Indent within outer box
	if innerWidth < 40 {
		innerWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
