package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/ui"
	"github.com/muurk/bobil/internal/version"
)

// AppName is shown in the title bar
const AppName = "BOBIL HEATER"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			Bold(true)

	staleStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.PrimaryColor).
			Padding(0, 2)
)

// View implements tea.Model
func (m Model) View() string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(AppName),
		subtitleStyle.Render(m.host+" • "+version.Version),
	)

	var body string
	if m.snapshot == nil {
		body = subtitleStyle.Render(m.spinner.View() + " Waiting for heater data...")
	} else {
		body = m.renderSnapshot()
	}

	var status []string
	if m.stale {
		status = append(status, staleStyle.Render(ui.WarningMarker+" Heater unreachable, showing cached data"))
	}
	if m.lastErr != nil {
		status = append(status, errorStyle.Render(ui.FailureMarker+" "+heater.GetShortErrorMessage(m.lastErr)))
	}
	if m.busy != "" {
		status = append(status, m.spinner.View()+" "+m.busy+"...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		panelStyle.Render(body),
		strings.Join(status, "\n"),
		"",
		m.help.View(m.keys),
	)
}

func (m Model) renderSnapshot() string {
	s := m.snapshot
	lines := []string{
		m.row("Air temperature", ui.FormatTemperature(s.AirTemperature)),
		m.row("Target temperature", ui.FormatTemperature(s.AirTemperatureTarget)),
		m.row("Water tank", ui.FormatTemperature(s.WaterTankTemperature)),
		m.row("Water level", ui.FormatPercent(s.WaterLevel)),
		"",
		m.circuitRow("Air heating", s.AirHeatingStatus),
		m.circuitRow("Water heating", s.WaterHeatingStatus),
		m.circuitRow("Air + water heating", s.CombinedHeatingStatus),
		"",
		subtitleStyle.Render("Updated " + s.LastUpdate.Local().Format(time.TimeOnly)),
	}
	return strings.Join(lines, "\n")
}

func (m Model) row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func (m Model) circuitRow(label string, v *bool) string {
	value := ui.FormatSwitch(v)
	style := ui.CircuitOffStyle
	if v != nil && *v {
		style = ui.CircuitOnStyle
	}
	return labelStyle.Render(label) + style.Render(value)
}
