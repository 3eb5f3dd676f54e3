package metrics

import (
	"math"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

// LoadFactorer is implemented by systems that can report the normal load
// factor for a state and control vector.
type LoadFactorer interface {
	LoadFactor(x dynamo.State, u dynamo.Control) float64
}

// PeakLoadFactor tracks the largest |n| seen during a run.
type PeakLoadFactor struct {
	name string
	dyn  dynamo.System
	peak float64
}

func NewPeakLoadFactor(dyn dynamo.System) *PeakLoadFactor {
	return &PeakLoadFactor{name: "peak_load_factor", dyn: dyn}
}

func (p *PeakLoadFactor) Name() string { return p.name }

func (p *PeakLoadFactor) Observe(x dynamo.State, u dynamo.Control, t float64) {
	lf, ok := p.dyn.(LoadFactorer)
	if !ok {
		return
	}
	n := math.Abs(lf.LoadFactor(x, u))
	if !math.IsNaN(n) {
		p.peak = math.Max(p.peak, n)
	}
}

func (p *PeakLoadFactor) Value() float64 { return p.peak }

func (p *PeakLoadFactor) Reset() { p.peak = 0 }
