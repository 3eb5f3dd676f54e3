// Package trim computes a steady level-flight operating point with a
// single linear solve of the lift and pitching-moment equations.
package trim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightdyn/internal/aero"
	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/atmosphere"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/log"
)

// MaxAlpha bounds the trimmed angle of attack.
const MaxAlpha = 10 * math.Pi / 180

// singularTol is the smallest |det| accepted from the 2x2 system.
const singularTol = 1e-9

// Condition is the commanded flight condition.
type Condition struct {
	Airspeed float64 // m/s
	Altitude float64 // m
	Heading  float64 // rad
	Flaps    float64 // rad
	Gear     float64
}

type Result struct {
	Condition

	Alpha    float64
	Theta    float64
	Elevator float64
	Throttle []float64
	U, W     float64

	DynamicPressure float64
	CLTrim          float64
	Drag            float64

	// Singular is set when the lift/moment system could not be solved and
	// the result was built from the lift equation alone.
	Singular bool
	// Clamped is set when any output hit a channel or sanity limit.
	Clamped bool
}

// InitialState returns the level-flight state at the trimmed condition.
func (r Result) InitialState(north, east float64) dynamo.State {
	x := dynamo.NewState()
	x[dynamo.U] = r.U
	x[dynamo.W] = r.W
	x[dynamo.Theta] = r.Theta
	x[dynamo.Psi] = r.Heading
	x[dynamo.North] = north
	x[dynamo.East] = east
	x[dynamo.Down] = -r.Altitude
	return x
}

// Apply writes the trimmed elevator, flaps, gear and throttles to c.
func (r Result) Apply(c *controls.State) {
	c.Set(controls.Elevator, r.Elevator)
	c.Set(controls.Flaps, r.Flaps)
	c.Set(controls.Gear, r.Gear)
	for i, th := range r.Throttle {
		c.SetThrottle(i, th)
	}
}

type Solver struct {
	spec   *aircraft.Spec
	logger *log.Logger
}

func NewSolver(spec *aircraft.Spec, logger *log.Logger) *Solver {
	return &Solver{spec: spec, logger: logger}
}

// Solve trims for level flight at c. An unsolvable system is not an
// error: the result is clamped, flagged and logged.
func (s *Solver) Solve(c Condition) (Result, error) {
	if c.Airspeed <= 0 || math.IsNaN(c.Airspeed) || math.IsNaN(c.Altitude) {
		return Result{}, fmt.Errorf("%w: airspeed %g altitude %g", dynamo.ErrParameterBounds, c.Airspeed, c.Altitude)
	}
	spec := s.spec
	lim := spec.Limits
	c.Flaps = lim.Flaps.Clamp(c.Flaps)
	c.Gear = lim.Gear.Clamp(c.Gear)

	env := atmosphere.At(c.Altitude)
	qbar := 0.5 * env.Density * c.Airspeed * c.Airspeed
	qs := qbar * spec.Geometry.Area

	d := func(name string) float64 { return spec.Derivatives.Get(name).Value(0, c.Flaps) }
	cl0, clA, clDe, clDf := d(aero.CL0), d(aero.CLAlpha), d(aero.CLDe), d(aero.CLDf)
	cm0, cmA, cmDe, cmDf := d(aero.CM0), d(aero.CMAlpha), d(aero.CMDe), d(aero.CMDf)

	r := Result{Condition: c, DynamicPressure: qbar}
	r.CLTrim = spec.Mass * env.Gravity / qs

	// Lift acting at an aerodynamic centre ahead of the CG pitches nose up
	// by (dx/c)·CL about the CG.
	if chord := spec.Geometry.Chord; chord > 0 {
		arm := (spec.Geometry.AeroCenter.X() - spec.Geometry.CG.X()) / chord
		cm0 += arm * cl0
		cmA += arm * clA
		cmDe += arm * clDe
		cmDf += arm * clDf
	}

	delta := cmA*clDe - clA*cmDe
	var alpha, elevator float64
	if math.Abs(delta) < singularTol {
		r.Singular = true
	} else {
		a := mat.NewDense(2, 2, []float64{clDe, clA, cmDe, cmA})
		b := mat.NewVecDense(2, []float64{r.CLTrim - cl0 - clDf*c.Flaps, -cm0 - cmDf*c.Flaps})
		var x mat.VecDense
		if err := x.SolveVec(a, b); err != nil {
			r.Singular = true
		} else {
			elevator, alpha = x.AtVec(0), x.AtVec(1)
		}
	}
	if r.Singular {
		s.logger.Warn("trim system is singular, solving lift alone",
			"aircraft", spec.Name, "delta", delta, "airspeed", c.Airspeed)
		elevator = 0
		if math.Abs(clA) > singularTol {
			alpha = (r.CLTrim - cl0 - clDf*c.Flaps) / clA
		}
	}

	r.Elevator = lim.Elevator.Clamp(elevator)
	r.Alpha = math.Max(0, math.Min(MaxAlpha, alpha))
	if r.Elevator != elevator || r.Alpha != alpha {
		r.Clamped = true
		s.logger.Warn("trim clamped to limits", "aircraft", spec.Name,
			"elevator", elevator, "alpha", alpha, "airspeed", c.Airspeed, "altitude", c.Altitude)
	}
	r.Theta = r.Alpha
	r.U = c.Airspeed * math.Cos(r.Alpha)
	r.W = c.Airspeed * math.Sin(r.Alpha)

	cd := d(aero.CD0) + d(aero.CDAlpha)*r.Alpha + d(aero.CDDe)*r.Elevator +
		d(aero.CDDf)*c.Flaps + d(aero.CDDg)*c.Gear
	r.Drag = cd * qs

	available := spec.TotalMaxThrust() * env.DensityRatio()
	throttle := lim.Throttle.Max
	if available > 0 {
		throttle = math.Abs(r.Drag) / available
	}
	clamped := lim.Throttle.Clamp(throttle)
	if clamped != throttle {
		r.Clamped = true
		s.logger.Warn("trim throttle out of range", "aircraft", spec.Name, "throttle", throttle)
	}
	r.Throttle = make([]float64, len(spec.Engines))
	for i := range r.Throttle {
		r.Throttle[i] = clamped
	}

	s.logger.Debug("trimmed", "aircraft", spec.Name, "airspeed", c.Airspeed, "altitude", c.Altitude,
		"alpha_deg", r.Alpha*180/math.Pi, "elevator_deg", r.Elevator*180/math.Pi, "throttle", clamped)
	return r, nil
}
