// Package output provides styled terminal rendering helpers for healthsync.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for ok statuses and improvements.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for error statuses and regressions.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for warning statuses.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorInfo is used for informational statuses.
	ColorInfo = lipgloss.Color("#4dd0e1")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleInfo    lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style

	// StyleLabel is used for metric labels.
	StyleLabel lipgloss.Style

	// StyleValue is used for metric values.
	StyleValue lipgloss.Style
)

func init() {
	applyStyles(false)
}

func applyStyles(plain bool) {
	base := lipgloss.NewStyle()
	if plain {
		StyleHeader = base
		StyleSuccess = base
		StyleError = base
		StyleWarning = base
		StyleInfo = base
		StyleMuted = base
		StyleBold = base
		StyleLabel = base.Width(20)
		StyleValue = base.Width(12)
		return
	}
	StyleHeader = base.Foreground(ColorPrimary).Bold(true)
	StyleSuccess = base.Foreground(ColorSuccess)
	StyleError = base.Foreground(ColorError)
	StyleWarning = base.Foreground(ColorWarning)
	StyleInfo = base.Foreground(ColorInfo)
	StyleMuted = base.Foreground(ColorMuted)
	StyleBold = base.Bold(true)
	StyleLabel = base.Width(20)
	StyleValue = base.Bold(true).Width(12)
}

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// ColorSupported reports whether f is a terminal that should receive
// color. NO_COLOR in the environment always disables it.
func ColorSupported(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StatusStyle returns the style for a status tag such as "ok" or "error".
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return StyleSuccess
	case "warning":
		return StyleWarning
	case "error":
		return StyleError
	case "info":
		return StyleInfo
	default:
		return StyleMuted
	}
}

// StatusIcon returns a one-character marker for a status tag.
func StatusIcon(status string) string {
	var icon string
	switch status {
	case "ok":
		icon = "✓"
	case "warning":
		icon = "!"
	case "error":
		icon = "✗"
	case "info":
		icon = "i"
	default:
		icon = "?"
	}
	return StatusStyle(status).Render(icon)
}
