package sim

import (
	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/forces"
	"github.com/san-kum/flightdyn/internal/integrators"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/trim"
)

// fataler is the subset of testing.TB that GinkgoT also provides.
type fataler interface {
	Helper()
	Fatal(args ...any)
}

type fixture struct {
	spec     *aircraft.Spec
	trim     trim.Result
	controls *controls.State
	x0       dynamo.State
	flight   *Flight
}

func trimmedTrainer(tb fataler) fixture {
	tb.Helper()
	return trimmed(tb, aircraft.Trainer(), 50)
}

func trimmed(tb fataler, spec *aircraft.Spec, airspeed float64) fixture {
	tb.Helper()
	res, err := trim.NewSolver(spec, nil).Solve(trim.Condition{Airspeed: airspeed, Altitude: 1500, Gear: 1})
	if err != nil {
		tb.Fatal(err)
	}
	ctl := controls.New(len(spec.Engines), spec.Limits)
	res.Apply(ctl)
	flight, err := NewFlight(spec, forces.DefaultLimits(), 0)
	if err != nil {
		tb.Fatal(err)
	}
	return fixture{spec: spec, trim: res, controls: ctl, x0: res.InitialState(0, 0), flight: flight}
}

func (f fixture) stepper(tb fataler, opts Options, logger *log.Logger) *Stepper {
	tb.Helper()
	s, err := NewStepper(f.flight, integrators.NewRK4(), f.controls, f.x0, opts, logger)
	if err != nil {
		tb.Fatal(err)
	}
	return s
}
