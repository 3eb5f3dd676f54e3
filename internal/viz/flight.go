package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/sim"
)

const (
	horizonWidth  = 40
	horizonHeight = 14
	frameRate     = 20
	traceSeconds  = 60.0

	surfaceStep  = 1 * math.Pi / 180
	throttleStep = 0.05
	flapStep     = 10 * math.Pi / 180
)

// Flight is the part of the stepper the cockpit drives.
type Flight interface {
	Start(ctx context.Context) bool
	Pause() bool
	Resume() bool
	Reset() bool
	Stop()
	ClearOutputLog() bool
	Phase() sim.Phase
	Latest() (sim.Record, bool)
	OutputLog() []sim.Record
	Controls() *controls.State
	Err() error
}

type TickMsg time.Time

// Model is the Bubble Tea model of the cockpit.
type Model struct {
	ctx      context.Context
	flight   Flight
	aircraft string

	theme    Theme
	styles   styles
	canvas   *Canvas
	showHelp bool

	latest sim.Record
	ok     bool
	trace  []float64
}

func NewModel(ctx context.Context, flight Flight, aircraft string) Model {
	return Model{
		ctx:      ctx,
		flight:   flight,
		aircraft: aircraft,
		theme:    ThemeNight,
		styles:   newStyles(ThemeNight),
		canvas:   NewCanvas(horizonWidth, horizonHeight),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update maps keys to control-plane requests and pilot inputs, and
// refreshes the published snapshot on every frame.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if quit := m.handleKey(msg.String()); quit {
			m.flight.Stop()
			return m, tea.Quit
		}
	case TickMsg:
		m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(key string) bool {
	ctl := m.flight.Controls()
	switch key {
	case "q", "ctrl+c":
		return true
	case "s":
		m.flight.Start(m.ctx)
	case " ":
		if m.flight.Phase() == sim.Paused {
			m.flight.Resume()
		} else {
			m.flight.Pause()
		}
	case "r":
		m.flight.Reset()
	case "c":
		m.flight.ClearOutputLog()
	case "up", "k":
		ctl.Nudge(controls.Elevator, surfaceStep)
	case "down", "j":
		ctl.Nudge(controls.Elevator, -surfaceStep)
	case "left", "h":
		ctl.Nudge(controls.Aileron, -surfaceStep)
	case "right", "l":
		ctl.Nudge(controls.Aileron, surfaceStep)
	case ",":
		ctl.Nudge(controls.Rudder, -surfaceStep)
	case ".":
		ctl.Nudge(controls.Rudder, surfaceStep)
	case "+", "=":
		m.nudgeThrottle(throttleStep)
	case "-", "_":
		m.nudgeThrottle(-throttleStep)
	case "f":
		ctl.Nudge(controls.Flaps, flapStep)
	case "v":
		ctl.Nudge(controls.Flaps, -flapStep)
	case "g":
		ctl.Set(controls.Gear, toggle(ctl.Get(controls.Gear)))
	case "b":
		ctl.Set(controls.Brakes, toggle(ctl.Get(controls.Brakes)))
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return false
}

func toggle(v float64) float64 {
	if v >= 0.5 {
		return 0
	}
	return 1
}

func (m *Model) nudgeThrottle(delta float64) {
	ctl := m.flight.Controls()
	v := ctl.Snapshot()
	for i, th := range v.Throttle {
		ctl.SetThrottle(i, th+delta)
	}
}

// refresh copies the newest record and the recent altitude trace.
func (m *Model) refresh() {
	m.latest, m.ok = m.flight.Latest()
	if !m.ok {
		m.trace = m.trace[:0]
		return
	}
	records := m.flight.OutputLog()
	since := m.latest.Time() - traceSeconds
	m.trace = m.trace[:0]
	for _, r := range records {
		if r.Time() >= since {
			m.trace = append(m.trace, r.Get(sim.Altitude))
		}
	}
}

func (m Model) status() string {
	if err := m.flight.Err(); err != nil {
		var simErr *dynamo.SimulationError
		if errors.As(err, &simErr) {
			return m.styles.alarm.Render(fmt.Sprintf("HALTED at t=%.2fs: state corrupted", simErr.Time))
		}
		return m.styles.alarm.Render("HALTED: " + err.Error())
	}
	switch m.flight.Phase() {
	case sim.Stepping:
		return m.styles.stepping.Render("FLYING")
	case sim.Paused:
		return m.styles.paused.Render("PAUSED")
	default:
		return m.styles.idle.Render("IDLE (s to start)")
	}
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

// View renders the cockpit.
func (m Model) View() string {
	m.canvas.Clear()
	if m.ok {
		DrawHorizon(m.canvas, m.latest.Get(sim.OutPhi), m.latest.Get(sim.OutTheta))
	} else {
		DrawHorizon(m.canvas, 0, 0)
	}
	horizon := m.styles.horizon.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.styles.header.Render(strings.ToUpper(m.aircraft)) + "  " + m.status() + "\n\n")
	if m.ok {
		r := m.latest
		s.WriteString(m.row("Time", fmt.Sprintf("%.2f s", r.Time())))
		s.WriteString(m.row("Airspeed", fmt.Sprintf("%.1f m/s  M%.3f", r.Get(sim.TAS), r.Get(sim.Mach))))
		s.WriteString(m.row("Altitude", fmt.Sprintf("%.0f m  (%.0f AGL)", r.Get(sim.Altitude), r.Get(sim.HeightAGL))))
		s.WriteString(m.row("Climb", fmt.Sprintf("%+.2f m/s", r.Get(sim.VerticalSpeed))))
		s.WriteString(m.row("Heading", fmt.Sprintf("%03.0f°", r.Get(sim.Heading))))
		s.WriteString(m.row("Alpha/Beta", fmt.Sprintf("%.1f° / %.1f°", deg(r.Get(sim.Alpha)), deg(r.Get(sim.Beta)))))
		s.WriteString(m.row("Load", fmt.Sprintf("%.2f g", r.Get(sim.LoadFactor))))
		s.WriteString(m.row("Position", fmt.Sprintf("%.5f, %.5f", r.Get(sim.Latitude), r.Get(sim.Longitude))))
	}

	s.WriteString("\n")
	s.WriteString(m.controlsView())

	if len(m.trace) > 1 {
		chart := asciigraph.Plot(m.trace, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("altitude (m)"))
		s.WriteString("\n" + m.styles.graph.Render(chart) + "\n")
	}

	s.WriteString("\n" + m.styles.keyHint.Render("s:start  space:pause  r:reset  q:quit  ?:help"))
	main := lipgloss.JoinHorizontal(lipgloss.Top, horizon, m.styles.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func (m Model) controlsView() string {
	ctl := m.flight.Controls()
	v := ctl.Snapshot()
	lim := ctl.Limits()

	var s strings.Builder
	s.WriteString(m.row("Elevator", CenteredBar(normalize(v.Elevator, lim.Elevator), 16)))
	s.WriteString(m.row("Aileron", CenteredBar(normalize(v.Aileron, lim.Aileron), 16)))
	s.WriteString(m.row("Rudder", CenteredBar(normalize(v.Rudder, lim.Rudder), 16)))
	s.WriteString(m.row("Flaps", fmt.Sprintf("%.0f°", deg(v.Flaps))))
	gear := "UP"
	if v.Gear >= 0.5 {
		gear = "DOWN"
	}
	brakes := "off"
	if v.Brakes >= 0.5 {
		brakes = "ON"
	}
	s.WriteString(m.row("Gear/Brakes", gear+" / "+brakes))
	for i, th := range v.Throttle {
		rpm := 0.0
		if m.ok && i < m.latest.Engines() {
			rpm = m.latest.RPM(i)
		}
		s.WriteString(m.row(fmt.Sprintf("Engine %d", i+1), fmt.Sprintf("%s %3.0f%% %4.0f rpm", LeverBar(th, 10), th*100, rpm)))
	}
	return s.String()
}

// normalize maps a surface deflection onto [-1, 1] of its range.
func normalize(v float64, r controls.Range) float64 {
	half := (r.Max - r.Min) / 2
	if half <= 0 {
		return 0
	}
	return (v - (r.Max+r.Min)/2) / half
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  S          - Start / restart        ║
║  Space      - Pause/Resume           ║
║  R          - Reset (while paused)   ║
║  Up/Down    - Elevator               ║
║  Left/Right - Aileron                ║
║  , .        - Rudder                 ║
║  + -        - Throttle               ║
║  F / V      - Flaps down/up          ║
║  G / B      - Gear / Brakes          ║
║  C          - Clear output log       ║
║  T          - Cycle themes           ║
║  Q          - Quit                   ║
╚══════════════════════════════════════╝
`

// Run shows the cockpit until the user quits or ctx is cancelled.
func Run(ctx context.Context, flight Flight, aircraft string) error {
	p := tea.NewProgram(NewModel(ctx, flight, aircraft), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
