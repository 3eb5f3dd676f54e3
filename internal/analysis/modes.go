package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

var ErrNoConvergence = errors.New("analysis: eigen decomposition failed")

// Longitudinal and Lateral are the state slots of the decoupled blocks.
var (
	Longitudinal = []int{dynamo.U, dynamo.W, dynamo.Q, dynamo.Theta}
	Lateral      = []int{dynamo.V, dynamo.P, dynamo.R, dynamo.Phi}
)

// Mode is one eigenvalue of a linearized block. Complex pairs are reported
// once, with a positive imaginary part.
type Mode struct {
	Name       string
	Eigenvalue complex128
	// Frequency is the undamped natural frequency (rad/s).
	Frequency float64
	Damping   float64
	// Period is zero for real modes.
	Period float64
	// TimeToHalf is set for convergent modes, TimeToDouble for divergent ones.
	TimeToHalf   float64
	TimeToDouble float64
}

func (m Mode) Oscillatory() bool { return imag(m.Eigenvalue) > 0 }

func (m Mode) Stable() bool { return real(m.Eigenvalue) < 0 }

func (m Mode) String() string {
	if m.Oscillatory() {
		return fmt.Sprintf("%s: wn=%.3f rad/s zeta=%.3f T=%.2fs", m.Name, m.Frequency, m.Damping, m.Period)
	}
	return fmt.Sprintf("%s: lambda=%.4f", m.Name, real(m.Eigenvalue))
}

// Linearize returns the Jacobian of sys.Derive with respect to the state at
// (x0, u0), restricted to the given slots, by central differences.
func Linearize(sys dynamo.System, x0 dynamo.State, u0 dynamo.Control, slots []int) *mat.Dense {
	n := len(slots)
	a := mat.NewDense(n, n, nil)
	for j, sj := range slots {
		h := 1e-6 * math.Max(1, math.Abs(x0[sj]))

		xp := x0.Clone()
		xp[sj] += h
		xm := x0.Clone()
		xm[sj] -= h
		fp := sys.Derive(xp, u0, 0)
		fm := sys.Derive(xm, u0, 0)

		for i, si := range slots {
			a.Set(i, j, (fp[si]-fm[si])/(2*h))
		}
	}
	return a
}

// Eigenvalues returns the eigenvalues of a, sorted by real part.
func Eigenvalues(a mat.Matrix) ([]complex128, error) {
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, ErrNoConvergence
	}
	vals := eig.Values(nil)
	sort.Slice(vals, func(i, j int) bool {
		if real(vals[i]) != real(vals[j]) {
			return real(vals[i]) < real(vals[j])
		}
		return imag(vals[i]) < imag(vals[j])
	})
	return vals, nil
}

// Modes linearizes sys about (x0, u0) and classifies the eigenvalues of the
// longitudinal and lateral blocks.
func Modes(sys dynamo.System, x0 dynamo.State, u0 dynamo.Control) ([]Mode, error) {
	if len(x0) != dynamo.StateDim {
		return nil, dynamo.ErrDimensionMismatch
	}
	if !x0.IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	lon, err := Eigenvalues(Linearize(sys, x0, u0, Longitudinal))
	if err != nil {
		return nil, fmt.Errorf("longitudinal: %w", err)
	}
	lat, err := Eigenvalues(Linearize(sys, x0, u0, Lateral))
	if err != nil {
		return nil, fmt.Errorf("lateral: %w", err)
	}

	modes := classify(lon, []string{"short_period", "phugoid"}, []string{"heave", "speed"})
	modes = append(modes, classify(lat, []string{"dutch_roll"}, []string{"roll", "spiral"})...)
	return modes, nil
}

// classify names oscillatory modes by descending natural frequency and real
// modes by descending magnitude. Extra modes keep a generic name.
func classify(vals []complex128, oscNames, realNames []string) []Mode {
	var osc, re []Mode
	for _, v := range vals {
		switch {
		case imag(v) > 1e-9:
			osc = append(osc, newMode(v))
		case imag(v) < -1e-9:
			// conjugate of a reported pair
		default:
			re = append(re, newMode(complex(real(v), 0)))
		}
	}
	sort.SliceStable(osc, func(i, j int) bool { return osc[i].Frequency > osc[j].Frequency })
	sort.SliceStable(re, func(i, j int) bool { return math.Abs(real(re[i].Eigenvalue)) > math.Abs(real(re[j].Eigenvalue)) })

	name := func(ms []Mode, names []string, generic string) {
		for i := range ms {
			if i < len(names) {
				ms[i].Name = names[i]
			} else {
				ms[i].Name = fmt.Sprintf("%s_%d", generic, i+1)
			}
		}
	}
	name(osc, oscNames, "oscillatory")

	// A block with fewer pairs than expected has spare real roots; name
	// the real ones from the end so roll/spiral stay at the extremes.
	if len(re) <= len(realNames) {
		name(re, realNames, "real")
	} else {
		name(re, nil, "real")
		re[0].Name = realNames[0]
		re[len(re)-1].Name = realNames[len(realNames)-1]
	}
	return append(osc, re...)
}

func newMode(v complex128) Mode {
	m := Mode{Eigenvalue: v, Frequency: cmplx.Abs(v)}
	if m.Frequency > 0 {
		m.Damping = -real(v) / m.Frequency
	}
	if imag(v) > 0 {
		m.Period = 2 * math.Pi / imag(v)
	}
	switch {
	case real(v) < 0:
		m.TimeToHalf = math.Ln2 / -real(v)
	case real(v) > 0:
		m.TimeToDouble = math.Ln2 / real(v)
	}
	return m
}
