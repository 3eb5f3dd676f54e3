package forces

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/controls"
)

// MixtureCutoff is the mixture setting below which an engine starves.
const MixtureCutoff = 0.1

type EngineOutput struct {
	Thrust float64
	RPM    float64
}

// Propulsion models fixed-pitch engines whose thrust acts along body x at
// the engine position and lapses with density ratio.
type Propulsion struct {
	engines []aircraft.Engine
	cg      mgl64.Vec3
}

func NewPropulsion(engines []aircraft.Engine, cg mgl64.Vec3) *Propulsion {
	return &Propulsion{engines: engines, cg: cg}
}

func (p *Propulsion) Engines() int { return len(p.engines) }

// Compute returns the summed engine loads. dst, if large enough, receives
// per-engine output.
func (p *Propulsion) Compute(densityRatio float64, c controls.Values, dst []EngineOutput) Loads {
	var total Loads
	for i, e := range p.engines {
		out := p.engine(i, e, densityRatio, c)
		if i < len(dst) {
			dst[i] = out
		}
		f := mgl64.Vec3{out.Thrust, 0, 0}
		total.Force = total.Force.Add(f)
		total.Moment = total.Moment.Add(e.Position.Sub(p.cg).Cross(f))
	}
	return total
}

func (p *Propulsion) engine(i int, e aircraft.Engine, sigma float64, c controls.Values) EngineOutput {
	throttle, prop, mixture := lever(c.Throttle, i, 0), lever(c.Propeller, i, 1), lever(c.Mixture, i, 1)
	if mixture < MixtureCutoff {
		return EngineOutput{}
	}
	if sigma < 0 {
		sigma = 0
	}
	rpm := (e.IdleRPM + throttle*(e.MaxRPM-e.IdleRPM)) * (0.6 + 0.4*prop)
	return EngineOutput{
		Thrust: throttle * e.MaxThrust * sigma,
		RPM:    rpm,
	}
}

func lever(vals []float64, i int, def float64) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return def
}
