package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/aero"
	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/atmosphere"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
	"github.com/san-kum/flightdyn/internal/forces"
	"github.com/san-kum/flightdyn/internal/frames"
)

// Flight is the rigid-body system for one aircraft: flat-earth 6DOF
// equations driven by aerodynamic, engine and gear loads.
//
// The angle-of-attack rate is an input held for a whole tick; callers set
// it with SetAlphaDot before stepping. A Flight is owned by one stepper and
// is not safe for concurrent use.
type Flight struct {
	spec       *aircraft.Spec
	model      *aero.Model
	inertia    frames.InertiaCoefficients
	propulsion *forces.Propulsion
	ground     *forces.Ground
	aggregator *forces.Aggregator

	alphaDot float64
}

func NewFlight(spec *aircraft.Spec, limits forces.Limits, groundElevation float64) (*Flight, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	inertia, err := spec.InertiaCoefficients()
	if err != nil {
		return nil, err
	}
	return &Flight{
		spec:       spec,
		model:      spec.Model(),
		inertia:    inertia,
		propulsion: forces.NewPropulsion(spec.Engines, spec.Geometry.CG),
		ground:     forces.NewGround(spec, groundElevation),
		aggregator: forces.NewAggregator(spec.Mass, limits),
	}, nil
}

func (f *Flight) Spec() *aircraft.Spec { return f.spec }

func (f *Flight) StateDim() int   { return dynamo.StateDim }
func (f *Flight) ControlDim() int { return controls.VectorDim(len(f.spec.Engines)) }

func (f *Flight) SetAlphaDot(v float64) { f.alphaDot = v }
func (f *Flight) AlphaDot() float64     { return f.alphaDot }

func (f *Flight) GroundElevation() float64 { return f.ground.Elevation() }

// Derive implements dynamo.System. A malformed control vector yields a
// NaN derivative, which the stepper reports as state corruption.
func (f *Flight) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	c, err := controls.FromVector(u)
	if err != nil {
		d := dynamo.NewState()
		for i := range d {
			d[i] = math.NaN()
		}
		return d
	}
	return f.Evaluate(x, c).Deriv
}

// Evaluation is everything computed on the way to the state derivative.
type Evaluation struct {
	Env       atmosphere.State
	Wind      frames.WindParams
	HeightAGL float64
	Aero      aero.Output
	Engines   []forces.EngineOutput
	Net       forces.Net
	Deriv     dynamo.State
}

func (f *Flight) Evaluate(x dynamo.State, c controls.Values) Evaluation {
	u, v, w := x[dynamo.U], x[dynamo.V], x[dynamo.W]
	p, q, r := x[dynamo.P], x[dynamo.Q], x[dynamo.R]
	att := frames.Euler{Phi: x[dynamo.Phi], Theta: x[dynamo.Theta], Psi: x[dynamo.Psi]}

	var ev Evaluation
	ev.Env = atmosphere.At(x.Altitude())
	ev.Wind = frames.WindParameters(u, v, w)
	ev.HeightAGL = x.Altitude() - f.ground.Elevation()

	ev.Aero = f.model.Compute(aero.Input{
		Wind:      ev.Wind,
		P:         p,
		Q:         q,
		R:         r,
		AlphaDot:  f.alphaDot,
		Density:   ev.Env.Density,
		HeightAGL: ev.HeightAGL,
		Elevator:  c.Elevator,
		Aileron:   c.Aileron,
		Rudder:    c.Rudder,
		Flaps:     c.Flaps,
		Gear:      c.Gear,
	})

	ev.Engines = make([]forces.EngineOutput, f.propulsion.Engines())
	thrust := f.propulsion.Compute(ev.Env.DensityRatio(), c, ev.Engines)
	gear := f.ground.Compute(forces.Contact{
		Attitude: att,
		Down:     x[dynamo.Down],
		Velocity: mgl64.Vec3{u, v, w},
		Rates:    mgl64.Vec3{p, q, r},
		Gear:     c.Gear,
		Brakes:   c.Brakes,
	})
	ev.Net = f.aggregator.Combine(forces.Loads{Force: ev.Aero.Force, Moment: ev.Aero.Moment}, thrust, gear)

	g := ev.Env.Gravity
	sphi, cphi := math.Sincos(att.Phi)
	sth, cth := math.Sincos(att.Theta)
	a := ev.Net.Accel

	d := dynamo.NewState()
	d[dynamo.U] = r*v - q*w - g*sth + a[0]
	d[dynamo.V] = -r*u + p*w + g*sphi*cth + a[1]
	d[dynamo.W] = q*u - p*v + g*cphi*cth + a[2]
	d[dynamo.P], d[dynamo.Q], d[dynamo.R] = f.inertia.AngularAcceleration(p, q, r, ev.Net.Moment)
	d[dynamo.Phi], d[dynamo.Theta], d[dynamo.Psi] = frames.EulerRates(att, p, q, r)

	ned := frames.Rotate(frames.BodyToNed(att), mgl64.Vec3{u, v, w})
	d[dynamo.North], d[dynamo.East], d[dynamo.Down] = ned[0], ned[1], ned[2]
	ev.Deriv = d
	return ev
}

// LoadFactor is the normal load factor in g for x and u.
func (f *Flight) LoadFactor(x dynamo.State, u dynamo.Control) float64 {
	c, err := controls.FromVector(u)
	if err != nil {
		return math.NaN()
	}
	return -f.Evaluate(x, c).Net.Accel[2] / atmosphere.StandardGravity
}
