package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/muurk/bobil/internal/heater"
)

// NotReported is shown for measurements missing from the status page.
const NotReported = "n/a"

// FormatTemperature renders a temperature in degrees Celsius.
func FormatTemperature(v *float64) string {
	if v == nil {
		return NotReported
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " °C"
}

// FormatPercent renders the water level.
func FormatPercent(v *float64) string {
	if v == nil {
		return NotReported
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " %"
}

// FormatSwitch renders a heating status as ON or OFF.
func FormatSwitch(v *bool) string {
	switch {
	case v == nil:
		return NotReported
	case *v:
		return "ON"
	default:
		return "OFF"
	}
}

// StatusDetails lists the snapshot as plain key/value lines in display order.
func StatusDetails(s *heater.Snapshot) []Detail {
	system := NotReported
	if s.SystemNumber != nil {
		system = *s.SystemNumber
	}
	details := []Detail{
		{"System number", system},
		{"Air temperature", FormatTemperature(s.AirTemperature)},
		{"Target temperature", FormatTemperature(s.AirTemperatureTarget)},
		{"Water tank", FormatTemperature(s.WaterTankTemperature)},
		{"Water level", FormatPercent(s.WaterLevel)},
	}
	for _, c := range heater.Circuits {
		details = append(details, Detail{circuitLabel(c), FormatSwitch(statusPtr(s, c))})
	}
	details = append(details, Detail{"Last update", s.LastUpdate.Local().Format(time.DateTime)})
	return details
}

func circuitLabel(c heater.Circuit) string {
	switch c {
	case heater.CircuitAir:
		return "Air heating"
	case heater.CircuitWater:
		return "Water heating"
	default:
		return "Air + water heating"
	}
}

func statusPtr(s *heater.Snapshot, c heater.Circuit) *bool {
	on, ok := s.Status(c)
	if !ok {
		return nil
	}
	return &on
}

// styleValue colours a rendered detail value.
func styleValue(value string) string {
	switch value {
	case "ON":
		return CircuitOnStyle.Render(value)
	case "OFF":
		return CircuitOffStyle.Render(value)
	case NotReported:
		return UnknownStyle.Render(value)
	default:
		return ResultValueStyle.Render(value)
	}
}

// levelBar renders the water level as a bar. Values outside 0-100 are drawn
// clamped; the number next to it is the raw reading.
func levelBar(level float64) string {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(20),
		progress.WithoutPercentage(),
	)
	return bar.ViewAs(min(max(level/100, 0), 1))
}

// RenderStatus renders a snapshot as a result box. stale marks a snapshot
// that was re-published from the cache after a communication error.
func RenderStatus(s *heater.Snapshot, stale bool, width int) string {
	r := NewSuccessResult("Heater status")
	if stale {
		r = NewWarningResult("Heater unreachable, showing cached data")
	}

	lines := []string{"", r.titleLine(), ""}
	for _, d := range StatusDetails(s) {
		line := ResultKeyStyle.Render("   "+d.Key+":") + " " + styleValue(d.Value)
		if d.Key == "Water level" && s.WaterLevel != nil {
			line += "  " + levelBar(*s.WaterLevel)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "")

	return resultBoxStyle(clampWidth(width), r.color()).Render(strings.Join(lines, "\n"))
}

// RenderStatusPlain renders a snapshot without styling, one field per line.
func RenderStatusPlain(s *heater.Snapshot) string {
	var b strings.Builder
	for _, d := range StatusDetails(s) {
		fmt.Fprintf(&b, "%-20s %s\n", d.Key+":", d.Value)
	}
	return b.String()
}

// StatusSummary returns a one-line summary of the snapshot.
func StatusSummary(s *heater.Snapshot) string {
	parts := []string{
		fmt.Sprintf("Air %s (target %s)", FormatTemperature(s.AirTemperature), FormatTemperature(s.AirTemperatureTarget)),
		"Tank " + FormatTemperature(s.WaterTankTemperature),
		"Level " + FormatPercent(s.WaterLevel),
	}
	for _, c := range heater.Circuits {
		parts = append(parts, fmt.Sprintf("%s %s", c, FormatSwitch(statusPtr(s, c))))
	}
	return strings.Join(parts, " | ")
}
