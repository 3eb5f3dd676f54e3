package metrics

import (
	"math"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

// verticalSpeed is the climb rate implied by body velocities and attitude.
func verticalSpeed(x dynamo.State) float64 {
	sphi, cphi := math.Sincos(x[dynamo.Phi])
	sth, cth := math.Sincos(x[dynamo.Theta])
	down := -sth*x[dynamo.U] + sphi*cth*x[dynamo.V] + cphi*cth*x[dynamo.W]
	return -down
}

// VerticalSpeedDeviation is the RMS climb rate over a run, a measure of
// how well a trimmed aircraft holds level flight.
type VerticalSpeedDeviation struct {
	name    string
	sumSq   float64
	samples int
}

func NewVerticalSpeedDeviation() *VerticalSpeedDeviation {
	return &VerticalSpeedDeviation{name: "vertical_speed_rms"}
}

func (v *VerticalSpeedDeviation) Name() string { return v.name }

func (v *VerticalSpeedDeviation) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < dynamo.StateDim {
		return
	}
	vs := verticalSpeed(x)
	v.sumSq += vs * vs
	v.samples++
}

func (v *VerticalSpeedDeviation) Value() float64 {
	if v.samples == 0 {
		return 0
	}
	return math.Sqrt(v.sumSq / float64(v.samples))
}

func (v *VerticalSpeedDeviation) Reset() {
	v.sumSq = 0
	v.samples = 0
}

// Envelope is the fraction of samples with bank and pitch inside the
// given limit.
type Envelope struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewEnvelope(limit float64) *Envelope {
	return &Envelope{name: "envelope", limit: limit}
}

func (e *Envelope) Name() string { return e.name }

func (e *Envelope) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < dynamo.StateDim {
		return
	}
	e.samples++
	if math.Abs(x[dynamo.Phi]) > e.limit || math.Abs(x[dynamo.Theta]) > e.limit {
		e.violations++
	}
}

func (e *Envelope) Value() float64 {
	if e.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(e.violations)/float64(e.samples)
}

func (e *Envelope) Reset() {
	e.violations = 0
	e.samples = 0
}
