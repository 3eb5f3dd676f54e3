// Package experiment assembles a trimmed flight from a config: aircraft,
// equations of motion, trim, initial state and controls, integrator and
// stepper.
package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/config"
	"github.com/san-kum/flightdyn/internal/controllers"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/forces"
	"github.com/san-kum/flightdyn/internal/log"
	"github.com/san-kum/flightdyn/internal/sim"
	"github.com/san-kum/flightdyn/internal/trim"
)

type Result struct {
	Records []sim.Record
	Metrics map[string]float64
	Trim    trim.Result
	Engines int
	// Err is the error that halted the run, if any.
	Err error
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *log.Logger

	adjust func(dynamo.State)

	spec    *aircraft.Spec
	trim    trim.Result
	stepper *sim.Stepper
}

func New(cfg *config.Config, registry *Registry, logger *log.Logger) *Experiment {
	return &Experiment{cfg: cfg, registry: registry, logger: logger}
}

// WithInitialState registers fn to adjust the initial state before the
// stepper is built.
func (e *Experiment) WithInitialState(fn func(dynamo.State)) *Experiment {
	e.adjust = fn
	return e
}

// Setup builds the stepper. The aircraft is trimmed for the configured
// condition; initial-condition and initial-control files, when set,
// override the trimmed state and controls.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	name := e.cfg.Aircraft
	if e.cfg.Files.Aircraft != "" {
		name = e.cfg.Files.Aircraft
	}
	spec, err := e.registry.GetAircraft(name, e.logger)
	if err != nil {
		return fmt.Errorf("aircraft %s: %w", name, err)
	}
	e.spec = spec

	limits := forces.Limits{MaxAccel: e.cfg.Limits.MaxAccel, MaxMoment: e.cfg.Limits.MaxMoment}
	flight, err := sim.NewFlight(spec, limits, e.cfg.Environment.GroundElevation)
	if err != nil {
		return err
	}

	e.trim, err = trim.NewSolver(spec, e.logger).Solve(trim.Condition{
		Airspeed: e.cfg.Trim.Airspeed,
		Altitude: e.cfg.Trim.Altitude,
		Heading:  e.cfg.Trim.Heading * math.Pi / 180,
		Gear:     1,
	})
	if err != nil {
		return fmt.Errorf("trim: %w", err)
	}

	ctl := controls.New(len(spec.Engines), spec.Limits)
	e.trim.Apply(ctl)
	if path := e.cfg.Files.InitialControls; path != "" {
		if v, ok := config.ReadInitialControls(path, len(spec.Engines), e.logger); ok {
			ctl.Apply(v)
		}
	}

	x0 := e.trim.InitialState(0, 0)
	geo := sim.GeoRef{Lat0: e.cfg.Environment.Latitude, Lon0: e.cfg.Environment.Longitude}
	if path := e.cfg.Files.InitialConditions; path != "" {
		ic, _ := config.ReadInitialConditions(path, e.logger)
		x0 = ic.State
		geo = sim.GeoRef{Lat0: ic.Latitude, Lon0: ic.Longitude}
	}

	if e.adjust != nil {
		e.adjust(x0)
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator.Method)
	if err != nil {
		return err
	}

	in := e.cfg.Integrator
	e.stepper, err = sim.NewStepper(flight, integ, ctl, x0, sim.Options{
		StartTime: in.StartTime,
		Dt:        in.Dt,
		EndTime:   in.EndTime,
		Unlimited: in.Unlimited,
		Retention: in.RetentionSeconds,
		Realtime:  in.Realtime,
		TickHz:    in.TickHz,
		Geo:       geo,
	}, e.logger)
	if err != nil {
		return err
	}
	for _, m := range e.registry.DefaultMetrics(flight) {
		e.stepper.AddMetric(m)
	}
	if e.cfg.Autopilot.AltitudeHold {
		e.stepper.AddObserver(controllers.NewAltitudeHold(ctl, x0.Altitude()))
	}
	if e.cfg.Autopilot.HeadingHold {
		e.stepper.AddObserver(controllers.NewHeadingHold(ctl, x0[dynamo.Psi]))
	}

	e.logger.Info("flight ready",
		"aircraft", spec.Name,
		"integrator", in.Method,
		"alpha_deg", e.trim.Alpha*180/math.Pi,
		"throttle", e.trim.Throttle)
	return nil
}

// Run flies the configured flight to completion on the calling goroutine.
// A halted run returns its partial output in Result.Err as well as err.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.stepper == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	err := e.stepper.Run(ctx)
	res := &Result{
		Records: e.stepper.OutputLog(),
		Metrics: e.stepper.Metrics(),
		Trim:    e.trim,
		Engines: len(e.spec.Engines),
		Err:     err,
	}
	return res, err
}

func (e *Experiment) Stepper() *sim.Stepper { return e.stepper }

func (e *Experiment) Spec() *aircraft.Spec { return e.spec }

func (e *Experiment) Trim() trim.Result { return e.trim }
