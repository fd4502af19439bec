package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(24)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Bar renders a signed horizontal bar of value against scale, centered on a
// zero mark. Colors move from green to red as |value| approaches scale.
func Bar(value, scale float64, width int) string {
	half := width / 2
	if scale <= 0 {
		scale = 1
	}
	frac := value / scale
	if frac > 1 {
		frac = 1
	}
	if frac < -1 {
		frac = -1
	}
	n := int(abs(frac)*float64(half) + 0.5)

	style := barLow
	switch {
	case abs(frac) > 0.9:
		style = barHigh
	case abs(frac) > 0.5:
		style = barMid
	}

	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if n == 0 {
		return left + "│" + right
	}
	if frac < 0 {
		left = strings.Repeat(" ", half-n) + style.Render(strings.Repeat("█", n))
	} else {
		right = style.Render(strings.Repeat("█", n)) + strings.Repeat(" ", half-n)
	}
	return left + "│" + right
}

// Table renders label/value rows with the metric styles.
func Table(rows [][2]string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = MetricLabel.Render(r[0]) + MetricValue.Render(r[1])
	}
	return strings.Join(lines, "\n")
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
