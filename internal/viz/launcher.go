package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Selection is what the launcher hands back to the caller.
type Selection struct {
	Aircraft string
	Preset   string
	// Cancelled is set when the user quit instead of choosing.
	Cancelled bool
}

const (
	pickAircraft = iota
	pickPreset
)

type launcher struct {
	stage    int
	cursor   int
	aircraft []string
	presets  []string
	choice   Selection
	styles   styles
}

func newLauncher(aircraft, presets []string) launcher {
	return launcher{aircraft: aircraft, presets: presets, styles: newStyles(ThemeNight)}
}

func (m launcher) Init() tea.Cmd { return nil }

func (m launcher) options() []string {
	if m.stage == pickAircraft {
		return m.aircraft
	}
	return m.presets
}

func (m launcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	opts := m.options()
	switch key.String() {
	case "q", "ctrl+c":
		m.choice.Cancelled = true
		return m, tea.Quit
	case "esc":
		if m.stage == pickPreset {
			m.stage, m.cursor = pickAircraft, 0
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(opts)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(opts) == 0 {
			return m, nil
		}
		if m.stage == pickAircraft {
			m.choice.Aircraft = opts[m.cursor]
			m.stage, m.cursor = pickPreset, 0
			if len(m.presets) == 0 {
				return m, tea.Quit
			}
			return m, nil
		}
		m.choice.Preset = opts[m.cursor]
		return m, tea.Quit
	}
	return m, nil
}

func (m launcher) View() string {
	title, hint := "SELECT AIRCRAFT", "j/k navigate  enter select  q quit"
	if m.stage == pickPreset {
		title = "SELECT FLIGHT CONDITION: " + strings.ToUpper(m.choice.Aircraft)
		hint = "j/k navigate  enter fly  esc back  q quit"
	}

	var b strings.Builder
	b.WriteString("\n\n    " + m.styles.header.Render("FLIGHTDYN") + "\n    " + m.styles.idle.Render(title) + "\n\n")
	for i, name := range m.options() {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s\n", m.styles.stepping.Render("▸"), lipgloss.NewStyle().Bold(true).Render(name)))
		} else {
			b.WriteString(fmt.Sprintf("      %s\n", m.styles.idle.Render(name)))
		}
	}
	b.WriteString("\n    " + m.styles.keyHint.Render(hint) + "\n")
	return b.String()
}

// Launch lets the user pick an aircraft and a preset.
func Launch(aircraft, presets []string) (Selection, error) {
	final, err := tea.NewProgram(newLauncher(aircraft, presets), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{Cancelled: true}, err
	}
	return final.(launcher).choice, nil
}
