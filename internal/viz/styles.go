package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are derived from a theme whenever it changes.
type styles struct {
	horizon lipgloss.Style
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	graph   lipgloss.Style
	keyHint lipgloss.Style

	stepping lipgloss.Style
	paused   lipgloss.Style
	idle     lipgloss.Style
	alarm    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		horizon: lipgloss.NewStyle().Foreground(t.Ground).Background(t.Sky).Padding(0, 1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(44),
		header:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		graph:    lipgloss.NewStyle().Foreground(t.Primary),
		keyHint:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		stepping: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		idle:     lipgloss.NewStyle().Foreground(t.Muted),
		alarm:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// LeverBar renders a lever position in [0, 1] as a filled bar.
func LeverBar(v float64, width int) string {
	filled := int(v*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// CenteredBar renders a deflection in [-1, 1] around a centre mark.
func CenteredBar(v float64, width int) string {
	half := width / 2
	pos := half + int(v*float64(half)+0.5*sign(v))
	pos = max(0, min(width, pos))
	var b strings.Builder
	for i := 0; i <= width; i++ {
		switch {
		case i == pos:
			b.WriteRune('●')
		case i == half:
			b.WriteRune('┼')
		default:
			b.WriteRune('─')
		}
	}
	return b.String()
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
