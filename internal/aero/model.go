package aero

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/frames"
)

// Geometry holds the reference dimensions of the wing and the moment
// reference points in body axes (x forward, y right, z down, metres).
type Geometry struct {
	Chord      float64
	Span       float64
	Area       float64
	AeroCenter mgl64.Vec3
	CG         mgl64.Vec3
}

// Input is the flight and control state the model needs for one evaluation.
type Input struct {
	Wind      frames.WindParams
	P, Q, R   float64
	AlphaDot  float64
	Density   float64
	HeightAGL float64

	Elevator float64
	Aileron  float64
	Rudder   float64
	Flaps    float64
	Gear     float64
}

// Coefficients are the non-dimensional force and moment coefficients.
// Cl is rolling moment; CL is lift.
type Coefficients struct {
	CL, CD, CY float64
	Cl, CM, CN float64
}

type Output struct {
	Coefficients
	DynamicPressure float64
	GroundEffect    float64

	// Force and Moment are in body axes; Moment is taken about the CG.
	Force  mgl64.Vec3
	Moment mgl64.Vec3
}

// Model turns flight state into aerodynamic loads for one aircraft. It
// holds no per-tick state and may be shared between goroutines.
type Model struct {
	geom   Geometry
	derivs Set
}

func NewModel(geom Geometry, derivs Set) *Model {
	if derivs == nil {
		derivs = Set{}
	}
	return &Model{geom: geom, derivs: derivs}
}

func (m *Model) Geometry() Geometry { return m.geom }

func (m *Model) Derivatives() Set { return m.derivs }

// GroundEffect returns the lift/drag correction for a height-to-span
// ratio. It is 1 at or above one span and falls smoothly to about 0.85
// at touchdown.
func GroundEffect(heightOverSpan float64) float64 {
	if math.IsNaN(heightOverSpan) || heightOverSpan >= 1 {
		return 1
	}
	if heightOverSpan < 0 {
		heightOverSpan = 0
	}
	return 1 + math.Atan(15*(heightOverSpan-1))/10
}

// Coefficients evaluates the build-up for in and returns the coefficients
// together with the ground-effect factor that was applied.
func (m *Model) Coefficients(in Input) (Coefficients, float64) {
	g := m.geom
	d := m.derivs
	alpha, beta := in.Wind.Alpha, in.Wind.Beta

	var pHat, qHat, rHat, aHat float64
	if v := in.Wind.TrueAirspeed; v > frames.MinAirspeed {
		pHat = in.P * g.Span / (2 * v)
		qHat = in.Q * g.Chord / (2 * v)
		rHat = in.R * g.Span / (2 * v)
		aHat = in.AlphaDot * g.Chord / (2 * v)
	}

	k := func(name string) float64 {
		switch AxisOf(name) {
		case BetaRudder:
			return d.Get(name).Value(beta, in.Rudder)
		case BetaAileron:
			return d.Get(name).Value(beta, in.Aileron)
		default:
			return d.Get(name).Value(alpha, in.Flaps)
		}
	}

	fGE := 1.0
	if g.Span > 0 {
		fGE = GroundEffect(in.HeightAGL / g.Span)
	}

	var c Coefficients
	c.CL = (k(CL0) + k(CLAlpha)*alpha + k(CLQ)*qHat + k(CLAlphaDot)*aHat +
		k(CLDe)*in.Elevator + k(CLDf)*in.Flaps) / fGE
	c.CD = (k(CD0) + k(CDAlpha)*alpha + k(CDDe)*in.Elevator + k(CDDf)*in.Flaps +
		k(CDDg)*in.Gear) * fGE
	c.CY = k(CYBeta)*beta + k(CYP)*pHat + k(CYR)*rHat + k(CYDr)*in.Rudder
	c.Cl = k(ClBeta)*beta + k(ClP)*pHat + k(ClR)*rHat + k(ClDa)*in.Aileron + k(ClDr)*in.Rudder
	c.CM = k(CM0) + k(CMAlpha)*alpha + k(CMQ)*qHat + k(CMAlphaDot)*aHat +
		k(CMDe)*in.Elevator + k(CMDf)*in.Flaps
	c.CN = k(CNBeta)*beta + k(CNP)*pHat + k(CNR)*rHat + k(CNDa)*in.Aileron + k(CNDr)*in.Rudder
	return c, fGE
}

// Compute returns body-axis aerodynamic force and moment about the CG.
func (m *Model) Compute(in Input) Output {
	c, fGE := m.Coefficients(in)
	g := m.geom

	qbar := 0.5 * in.Density * in.Wind.TrueAirspeed * in.Wind.TrueAirspeed
	qs := qbar * g.Area

	wind := mgl64.Vec3{-c.CD * qs, c.CY * qs, -c.CL * qs}
	force := frames.Rotate(frames.WindToBody(in.Wind), wind)

	moment := mgl64.Vec3{qs * g.Span * c.Cl, qs * g.Chord * c.CM, qs * g.Span * c.CN}
	arm := g.AeroCenter.Sub(g.CG)
	moment = moment.Add(arm.Cross(force))

	return Output{
		Coefficients:    c,
		DynamicPressure: qbar,
		GroundEffect:    fGE,
		Force:           force,
		Moment:          moment,
	}
}
