// Package analysis characterizes the dynamics of a trimmed flight.
//
//   - [Linearize]: central-difference Jacobian of a system about an operating point
//   - [Modes]: eigenvalues of the longitudinal and lateral blocks, classified as
//     short period, phugoid, dutch roll, roll and spiral
//   - [PowerSpectrum] and [DominantPeriod]: spectral content of a recorded series
//
// # Stability Modes
//
//	modes, err := analysis.Modes(flight, x0, u0)
//	for _, m := range modes {
//	    fmt.Println(m.Name, m.Damping, m.Period)
//	}
package analysis
