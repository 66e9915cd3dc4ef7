package rcatui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#00D4FF")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#E5E7EB")
	colorDim     = lipgloss.Color("#4B5563")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	phaseStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	hypothesisLabelStyle = lipgloss.NewStyle().
				Foreground(colorText)

	barFilledStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	barWarningStyle = lipgloss.NewStyle().
				Foreground(colorWarning)

	barDangerStyle = lipgloss.NewStyle().
			Foreground(colorError)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	agentStatusStyle = lipgloss.NewStyle().
				Foreground(colorMuted)

	agentDoneStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	verdictBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)
)

// confidenceBarStyle picks a color band for a confidence value: filled at or
// above the default HIGH threshold (0.85), warning at or above the default
// MED threshold (0.60), danger below.
func confidenceBarStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.85:
		return barFilledStyle
	case confidence >= 0.60:
		return barWarningStyle
	default:
		return barDangerStyle
	}
}

func renderBar(confidence float64, width int) string {
	filled := int(confidence * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	style := confidenceBarStyle(confidence)
	return style.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
