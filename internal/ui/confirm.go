package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and asks a yes/no question on in. Anything
// other than "y" or "yes" (case-insensitive) counts as no.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, question string) bool {
	r := NewWarningResult(title)
	lines := []string{"", r.titleLine(), ""}
	for _, w := range warnings {
		lines = append(lines, ResultValueStyle.Render("   • "+w))
	}
	lines = append(lines, "")

	box := resultBoxStyle(GetTerminalWidth(), WarningColor).Render(strings.Join(lines, "\n"))
	_, _ = fmt.Fprintln(out, box)
	_, _ = fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	_, _ = fmt.Fprint(out, promptStyle.Render(question+" [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}

	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	_, _ = fmt.Fprintln(out, cancelStyle.Render("  Operation cancelled."))
	return false
}
