// Package aircraft describes an airframe: geometry, mass properties,
// engines, landing gear and the stability derivatives that drive the
// aerodynamics model.
package aircraft

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/aero"
	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/frames"
)

var ErrInvalidSpec = errors.New("aircraft: invalid spec")

type Engine struct {
	Position  mgl64.Vec3
	MaxThrust float64 // sea-level static thrust, N
	IdleRPM   float64
	MaxRPM    float64
}

// GearPoint is a landing-gear contact point in body axes.
type GearPoint struct {
	Name      string
	Position  mgl64.Vec3
	Stiffness float64 // N/m
	Damping   float64 // N·s/m
}

// Spec is immutable once loaded; share it freely between runs.
type Spec struct {
	Name     string
	Geometry aero.Geometry

	Mass            float64
	Ix, Iy, Iz, Ixz float64

	Engines []Engine
	Gear    []GearPoint

	RollingFriction float64
	BrakeFriction   float64

	Limits      controls.Limits
	Derivatives aero.Set
}

// Validate rejects specs the equations of motion cannot use.
func (s *Spec) Validate() error {
	switch {
	case s.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidSpec, s.Mass)
	case s.Geometry.Area <= 0 || s.Geometry.Span <= 0 || s.Geometry.Chord <= 0:
		return fmt.Errorf("%w: wing chord, span and area must be positive", ErrInvalidSpec)
	case len(s.Engines) == 0:
		return fmt.Errorf("%w: at least one engine is required", ErrInvalidSpec)
	}
	if _, err := s.InertiaCoefficients(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return nil
}

func (s *Spec) InertiaCoefficients() (frames.InertiaCoefficients, error) {
	return frames.NewInertiaCoefficients(s.Ix, s.Iy, s.Iz, s.Ixz)
}

// Model returns a fresh aerodynamics model bound to this airframe.
func (s *Spec) Model() *aero.Model {
	return aero.NewModel(s.Geometry, s.Derivatives)
}

// TotalMaxThrust is the summed sea-level thrust of every engine.
func (s *Spec) TotalMaxThrust() float64 {
	total := 0.0
	for _, e := range s.Engines {
		total += e.MaxThrust
	}
	return total
}
