// Package forces turns engine, landing-gear and aerodynamic loads into the
// net acceleration and moment the equations of motion integrate.
package forces

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/metrics"
)

// Loads is a force and a moment about the CG, both in body axes.
type Loads struct {
	Force  mgl64.Vec3
	Moment mgl64.Vec3
}

func (l Loads) Add(o Loads) Loads {
	return Loads{Force: l.Force.Add(o.Force), Moment: l.Moment.Add(o.Moment)}
}

// Limits bounds each component of the aggregated outputs. Zero disables
// the corresponding clamp.
type Limits struct {
	MaxAccel  float64 // m/s^2
	MaxMoment float64 // N·m
}

func DefaultLimits() Limits {
	return Limits{MaxAccel: 20 * 9.80665, MaxMoment: 5e5}
}

// Net is the aggregator output handed to the integrator.
type Net struct {
	Accel     mgl64.Vec3
	Moment    mgl64.Vec3
	Saturated bool
}

type Aggregator struct {
	mass   float64
	limits Limits
}

func NewAggregator(mass float64, limits Limits) *Aggregator {
	return &Aggregator{mass: mass, limits: limits}
}

func (a *Aggregator) Limits() Limits { return a.limits }

// Combine sums the contributions and applies the saturation limits. NaN
// components pass through unchanged so corruption is still detected
// downstream.
func (a *Aggregator) Combine(parts ...Loads) Net {
	var total Loads
	for _, p := range parts {
		total = total.Add(p)
	}

	var n Net
	n.Accel = total.Force.Mul(1 / a.mass)
	n.Moment = total.Moment
	for i := 0; i < 3; i++ {
		if clamp(&n.Accel[i], a.limits.MaxAccel) {
			metrics.SaturationEvents.WithLabelValues(accelLabels[i]).Inc()
			n.Saturated = true
		}
		if clamp(&n.Moment[i], a.limits.MaxMoment) {
			metrics.SaturationEvents.WithLabelValues(momentLabels[i]).Inc()
			n.Saturated = true
		}
	}
	return n
}

var (
	accelLabels  = [3]string{"accel_x", "accel_y", "accel_z"}
	momentLabels = [3]string{"roll_moment", "pitch_moment", "yaw_moment"}
)

func clamp(v *float64, limit float64) bool {
	if limit <= 0 || math.IsNaN(*v) {
		return false
	}
	if *v > limit {
		*v = limit
		return true
	}
	if *v < -limit {
		*v = -limit
		return true
	}
	return false
}
