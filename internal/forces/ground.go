package forces

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/flightdyn/internal/aircraft"
	"github.com/san-kum/flightdyn/internal/frames"
)

// gearDownThreshold is the gear lever position above which the wheels
// can touch the ground.
const gearDownThreshold = 0.5

// frictionSlip is the horizontal contact speed below which friction is
// scaled down linearly to avoid chatter at rest.
const frictionSlip = 0.1

// Contact is the kinematic state the ground model needs.
type Contact struct {
	Attitude frames.Euler
	Down     float64    // NED down position of the CG
	Velocity mgl64.Vec3 // body-axis velocity of the CG
	Rates    mgl64.Vec3 // body rates p, q, r
	Gear     float64
	Brakes   float64
}

// Ground is a spring-damper landing-gear contact model over flat terrain.
type Ground struct {
	gear      []aircraft.GearPoint
	cg        mgl64.Vec3
	rolling   float64
	brake     float64
	elevation float64
}

func NewGround(spec *aircraft.Spec, elevation float64) *Ground {
	return &Ground{
		gear:      spec.Gear,
		cg:        spec.Geometry.CG,
		rolling:   spec.RollingFriction,
		brake:     spec.BrakeFriction,
		elevation: elevation,
	}
}

func (g *Ground) Elevation() float64 { return g.elevation }

// Compute returns the summed gear reaction in body axes.
func (g *Ground) Compute(c Contact) Loads {
	var total Loads
	if c.Gear < gearDownThreshold {
		return total
	}
	toNed := frames.BodyToNed(c.Attitude)
	toBody := toNed.T()

	for _, gp := range g.gear {
		arm := gp.Position.Sub(g.cg)
		offset := frames.Rotate(toNed, arm)
		penetration := c.Down + offset[2] + g.elevation
		if penetration <= 0 {
			continue
		}

		vel := frames.Rotate(toNed, c.Velocity.Add(c.Rates.Cross(arm)))
		normal := math.Max(0, gp.Stiffness*penetration+gp.Damping*vel[2])

		mu := g.rolling
		if gp.Name != "nose" {
			mu += c.Brakes * g.brake
		}
		horiz := mgl64.Vec3{vel[0], vel[1], 0}
		speed := horiz.Len()
		var friction mgl64.Vec3
		if speed > 0 {
			scale := mu * normal / speed
			if speed < frictionSlip {
				scale = mu * normal / frictionSlip
			}
			friction = horiz.Mul(-scale)
		}

		fNed := mgl64.Vec3{friction[0], friction[1], -normal}
		fBody := frames.Rotate(toBody, fNed)
		total.Force = total.Force.Add(fBody)
		total.Moment = total.Moment.Add(arm.Cross(fBody))
	}
	return total
}
