// Package util provides shared text helpers for terminal output.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
// The result, ellipsis included, is at most maxLen runes long.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var ruleStyle = lipgloss.NewStyle().Faint(true)

// Rule returns a horizontal divider width cells wide.
func Rule(width int) string {
	if width <= 0 {
		return ""
	}
	return ruleStyle.Render(strings.Repeat("─", width))
}

// PadRight pads s with spaces to width visible cells, measuring styled text
// the way the terminal renders it.
func PadRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
