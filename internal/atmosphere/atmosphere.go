// Package atmosphere evaluates the International Standard Atmosphere and
// gravity as a function of geometric altitude.
package atmosphere

import "math"

const (
	SeaLevelDensity     = 1.225     // kg/m^3
	SeaLevelPressure    = 101325.0  // Pa
	SeaLevelTemperature = 288.15    // K
	StandardGravity     = 9.80665   // m/s^2
	EarthRadius         = 6371000.0 // m

	gasConstant   = 287.05287 // J/(kg K)
	heatRatio     = 1.4
	lapseRate     = 0.0065 // K/m
	tropopause    = 11000.0
	stratosphereT = 216.65
	ceiling       = 20000.0
	floor         = -1000.0
)

// State is the environment seen by the aircraft at one altitude.
type State struct {
	Altitude     float64
	Temperature  float64
	Pressure     float64
	Density      float64
	SpeedOfSound float64
	Gravity      float64
}

// DensityRatio is density relative to sea level.
func (s State) DensityRatio() float64 {
	return s.Density / SeaLevelDensity
}

// At evaluates the atmosphere at altitude h (m, positive up). Altitudes
// outside [-1000, 20000] are clamped to the model's validity range.
func At(h float64) State {
	hc := math.Max(floor, math.Min(ceiling, h))

	var temp, press float64
	if hc <= tropopause {
		temp = SeaLevelTemperature - lapseRate*hc
		press = SeaLevelPressure * math.Pow(temp/SeaLevelTemperature, StandardGravity/(lapseRate*gasConstant))
	} else {
		p11 := SeaLevelPressure * math.Pow(stratosphereT/SeaLevelTemperature, StandardGravity/(lapseRate*gasConstant))
		temp = stratosphereT
		press = p11 * math.Exp(-StandardGravity*(hc-tropopause)/(gasConstant*stratosphereT))
	}

	ratio := EarthRadius / (EarthRadius + math.Max(h, floor))
	return State{
		Altitude:     h,
		Temperature:  temp,
		Pressure:     press,
		Density:      press / (gasConstant * temp),
		SpeedOfSound: math.Sqrt(heatRatio * gasConstant * temp),
		Gravity:      StandardGravity * ratio * ratio,
	}
}
