package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PowerSpectrum returns the magnitude of the one-sided spectrum of data with
// its mean removed. Bin i corresponds to i/(len(data)*dt) Hz.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	seq := make([]float64, n)
	for i, v := range data {
		seq[i] = v - mean
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, seq)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod returns the period (s) of the strongest non-DC component of
// a series sampled every dt seconds, or 0 when there is none.
func DominantPeriod(data []float64, dt float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}
	best, idx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, idx = ps[i], i
		}
	}
	if idx == 0 || best < 1e-12 {
		return 0
	}
	return float64(len(data)) * dt / float64(idx)
}
