package aircraft

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/aero"
	"github.com/san-kum/flightdyn/internal/controls"
)

// DefaultDerivatives are the light single-engine values used when an
// aircraft file leaves a derivative out or its table cannot be built.
func DefaultDerivatives() map[string]float64 {
	return map[string]float64{
		aero.CL0:        0.2,
		aero.CLAlpha:    5.0,
		aero.CLQ:        3.9,
		aero.CLAlphaDot: 1.7,
		aero.CLDe:       0.43,
		aero.CLDf:       0.9,

		aero.CD0:     0.03,
		aero.CDAlpha: 0.3,
		aero.CDDe:    0,
		aero.CDDf:    0.1,
		aero.CDDg:    0,

		aero.CYBeta: -0.31,
		aero.CYP:    -0.037,
		aero.CYR:    0.21,
		aero.CYDr:   0.187,

		aero.ClBeta: -0.089,
		aero.ClP:    -0.47,
		aero.ClR:    0.096,
		aero.ClDa:   0.178,
		aero.ClDr:   0.0147,

		aero.CM0:        0.04,
		aero.CMAlpha:    -0.89,
		aero.CMQ:        -12.4,
		aero.CMAlphaDot: -5.2,
		aero.CMDe:       -1.28,
		aero.CMDf:       -0.2,

		aero.CNBeta: 0.065,
		aero.CNP:    -0.03,
		aero.CNR:    -0.099,
		aero.CNDa:   -0.053,
		aero.CNDr:   -0.0657,
	}
}

func constantSet(values map[string]float64) aero.Set {
	set := make(aero.Set, len(values))
	for name, v := range values {
		set[name] = aero.Constant(v)
	}
	return set
}

func tricycle(noseX, mainX, track, height, stiffness, damping float64) []GearPoint {
	return []GearPoint{
		{Name: "nose", Position: mgl64.Vec3{noseX, 0, height}, Stiffness: stiffness, Damping: damping},
		{Name: "left", Position: mgl64.Vec3{mainX, -track / 2, height}, Stiffness: stiffness, Damping: damping},
		{Name: "right", Position: mgl64.Vec3{mainX, track / 2, height}, Stiffness: stiffness, Damping: damping},
	}
}

// Trainer is a fixed-gear single-engine aircraft with linear aerodynamics.
func Trainer() *Spec {
	return &Spec{
		Name: "trainer",
		Geometry: aero.Geometry{
			Chord: 1.5,
			Span:  10.9,
			Area:  16,
		},
		Mass: 1000,
		Ix:   1285,
		Iy:   1825,
		Iz:   2667,
		Engines: []Engine{
			{MaxThrust: 2500, IdleRPM: 700, MaxRPM: 2700},
		},
		Gear:            tricycle(1.2, -0.3, 2.5, 1.1, 60000, 4000),
		RollingFriction: 0.02,
		BrakeFriction:   0.4,
		Limits:          controls.DefaultLimits(),
		Derivatives:     constantSet(DefaultDerivatives()),
	}
}

// Twin is a heavier twin with retractable gear, wing-mounted engines and
// a small aerodynamic-centre offset aft of the CG.
func Twin() *Spec {
	d := DefaultDerivatives()
	d[aero.CLAlpha] = 5.3
	d[aero.CDDg] = 0.015
	d[aero.CM0] = 0.05
	d[aero.CMDe] = -1.4

	limits := controls.DefaultLimits()
	limits.Flaps = controls.Range{Min: 0, Max: 40 * math.Pi / 180}

	return &Spec{
		Name: "twin",
		Geometry: aero.Geometry{
			Chord:      1.6,
			Span:       12.5,
			Area:       20,
			AeroCenter: mgl64.Vec3{-0.05, 0, 0},
		},
		Mass: 2000,
		Ix:   3200,
		Iy:   4400,
		Iz:   7000,
		Ixz:  120,
		Engines: []Engine{
			{Position: mgl64.Vec3{0.5, -2.4, 0}, MaxThrust: 3000, IdleRPM: 650, MaxRPM: 2600},
			{Position: mgl64.Vec3{0.5, 2.4, 0}, MaxThrust: 3000, IdleRPM: 650, MaxRPM: 2600},
		},
		Gear:            tricycle(2.4, -0.4, 3.4, 1.3, 120000, 9000),
		RollingFriction: 0.02,
		BrakeFriction:   0.45,
		Limits:          limits,
		Derivatives:     constantSet(d),
	}
}

var builtins = map[string]func() *Spec{
	"trainer": Trainer,
	"twin":    Twin,
}

// Builtin returns a fresh copy of the named built-in aircraft.
func Builtin(name string) (*Spec, bool) {
	f, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
