// Package frames converts between the wind, body and local North-East-Down
// frames and derives the quantities the equations of motion need from the
// body velocity and the inertia tensor. All functions are pure.
package frames

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// MinAirspeed is the speed below which wind angles are undefined (m/s).
const MinAirspeed = 1e-6

var ErrDegenerateInertia = errors.New("frames: degenerate inertia tensor")

// WindParams describes the relative airflow.
type WindParams struct {
	TrueAirspeed float64
	Beta         float64
	Alpha        float64
}

// Euler holds 3-2-1 attitude angles in radians.
type Euler struct {
	Phi, Theta, Psi float64
}

// WindToBody returns the rotation taking wind-frame vectors into the body
// frame for the given sideslip and angle of attack.
func WindToBody(w WindParams) *mat.Dense {
	sa, ca := math.Sincos(w.Alpha)
	sb, cb := math.Sincos(w.Beta)
	return mat.NewDense(3, 3, []float64{
		ca * cb, -ca * sb, -sa,
		sb, cb, 0,
		sa * cb, -sa * sb, ca,
	})
}

// BodyToNed is the standard 3-2-1 direction cosine matrix from body to NED.
func BodyToNed(e Euler) *mat.Dense {
	sp, cp := math.Sincos(e.Phi)
	st, ct := math.Sincos(e.Theta)
	ss, cs := math.Sincos(e.Psi)
	return mat.NewDense(3, 3, []float64{
		ct * cs, sp*st*cs - cp*ss, cp*st*cs + sp*ss,
		ct * ss, sp*st*ss + cp*cs, cp*st*ss - sp*cs,
		-st, sp * ct, cp * ct,
	})
}

// Rotate applies the 3x3 matrix m to v.
func Rotate(m mat.Matrix, v mgl64.Vec3) mgl64.Vec3 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	return mgl64.Vec3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// InertiaCoefficients are the nine constants of the rotational equations
// for an aircraft symmetric about its x-z plane.
type InertiaCoefficients struct {
	C1, C2, C3, C4, C5, C6, C7, C8, C9 float64
	Gamma                              float64
}

// NewInertiaCoefficients precomputes the rotational-dynamics constants.
// Gamma = Ix*Iz - Ixz^2 must be non-zero.
func NewInertiaCoefficients(ix, iy, iz, ixz float64) (InertiaCoefficients, error) {
	gamma := ix*iz - ixz*ixz
	if math.Abs(gamma) < 1e-9 || math.Abs(iy) < 1e-9 {
		return InertiaCoefficients{}, fmt.Errorf("%w: Ix=%g Iy=%g Iz=%g Ixz=%g", ErrDegenerateInertia, ix, iy, iz, ixz)
	}
	return InertiaCoefficients{
		C1:    ((iy-iz)*iz - ixz*ixz) / gamma,
		C2:    (ix - iy + iz) * ixz / gamma,
		C3:    iz / gamma,
		C4:    ixz / gamma,
		C5:    (iz - ix) / iy,
		C6:    ixz / iy,
		C7:    1 / iy,
		C8:    (ix*(ix-iy) + ixz*ixz) / gamma,
		C9:    ix / gamma,
		Gamma: gamma,
	}, nil
}

// AngularAcceleration evaluates pdot, qdot, rdot for body rates (p, q, r)
// and body moments (l, m, n).
func (c InertiaCoefficients) AngularAcceleration(p, q, r float64, moment mgl64.Vec3) (pdot, qdot, rdot float64) {
	l, m, n := moment[0], moment[1], moment[2]
	pdot = (c.C1*r+c.C2*p)*q + c.C3*l + c.C4*n
	qdot = c.C5*p*r - c.C6*(p*p-r*r) + c.C7*m
	rdot = (c.C8*p-c.C2*r)*q + c.C4*l + c.C9*n
	return
}

// WindParameters derives airspeed and flow angles from body velocities.
// Returns zeros below MinAirspeed instead of NaN.
func WindParameters(u, v, w float64) WindParams {
	vt := math.Sqrt(u*u + v*v + w*w)
	if vt < MinAirspeed {
		return WindParams{}
	}
	// atan(w/u), continued to ±π/2 as u crosses zero
	alpha := math.Atan2(w, math.Abs(u))
	if u < 0 {
		alpha = -alpha
	}
	return WindParams{
		TrueAirspeed: vt,
		Beta:         math.Asin(v / vt),
		Alpha:        alpha,
	}
}

// AlphaDot is the rate of change of angle of attack.
func AlphaDot(u, w, uDot, wDot float64) float64 {
	den := u*u + w*w
	if den < MinAirspeed*MinAirspeed {
		return 0
	}
	return (u*wDot - w*uDot) / den
}

// EulerRates maps body rates to Euler angle rates. Near theta = ±90° the
// secant is capped rather than allowed to diverge.
func EulerRates(e Euler, p, q, r float64) (phiDot, thetaDot, psiDot float64) {
	sp, cp := math.Sincos(e.Phi)
	st, ct := math.Sincos(e.Theta)
	if math.Abs(ct) < 1e-6 {
		ct = math.Copysign(1e-6, ct)
	}
	phiDot = p + (st/ct)*(q*sp+r*cp)
	thetaDot = q*cp - r*sp
	psiDot = (q*sp + r*cp) / ct
	return
}

// WrapPi folds an angle into (-pi, pi].
func WrapPi(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
