package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every subcommand. Styles render as plain text when the
// output is not a terminal.
var (
	primaryColor   = lipgloss.Color("#A78BFA") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#F87171") // Red
	mutedColor     = lipgloss.Color("#9CA3AF") // Gray

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	agreeStyle   = lipgloss.NewStyle().Bold(true).Foreground(secondaryColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	diffAddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	diffRemoveStyle = lipgloss.NewStyle().Foreground(errorColor)
	diffHunkStyle   = lipgloss.NewStyle().Foreground(primaryColor)
)

// colorizeDiff styles each line of a unified diff. Styling is applied per
// line so multi-line blocks are never padded.
func colorizeDiff(diff string) string {
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = headerStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = diffHunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = diffAddStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = diffRemoveStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
