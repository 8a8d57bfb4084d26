// Package analysis provides diagnostics for simulated and forecast
// trajectories: spatial power spectra and a divergence-rate estimate
// that distinguishes chaotic dynamics from periodic ones.
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

// PowerSpectrum returns |F[series]|² over the half spectrum. The input
// is zero-padded to the next power of two.
func PowerSpectrum(series []float64) []float64 {
	n := 1
	for n < len(series) {
		n <<= 1
	}
	padded := make([]float64, n)
	copy(padded, series)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, padded)

	ps := make([]float64, len(coeffs))
	for k, c := range coeffs {
		re, im := real(c), imag(c)
		ps[k] = re*re + im*im
	}
	return ps
}

// DominantFrequency locates the non-constant peak of a power spectrum,
// in cycles per sample given the sampling interval dt.
func DominantFrequency(ps []float64, n int, dt float64) float64 {
	maxIdx := 0
	maxPower := 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > maxPower {
			maxPower = ps[k]
			maxIdx = k
		}
	}
	return float64(maxIdx) / (float64(n) * dt)
}

// MeanSpatialSpectrum averages the spatial power spectrum over every
// time step of a trajectory. For the Kuramoto-Sivashinsky attractor the
// result peaks at the linearly most unstable wavenumber.
func MeanSpatialSpectrum(traj *dataset.Trajectory) ([]float64, error) {
	if traj.Len() == 0 {
		return nil, fmt.Errorf("analysis: empty trajectory")
	}

	var mean []float64
	for i := 0; i < traj.Len(); i++ {
		ps := PowerSpectrum(traj.At(i))
		if mean == nil {
			mean = make([]float64, len(ps))
		}
		for k := range ps {
			mean[k] += ps[k]
		}
	}
	inv := 1.0 / float64(traj.Len())
	for k := range mean {
		mean[k] *= inv
	}
	return mean, nil
}
