package analysis

import (
	"fmt"
	"math"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

// DivergenceRate estimates the exponential separation rate of two
// trajectories started from nearby initial conditions, a proxy for the
// largest Lyapunov exponent. It fits the slope of ln‖a−b‖ over the
// window where the separation grows but has not yet saturated on the
// attractor. A positive rate indicates chaos.
func DivergenceRate(a, b *dataset.Trajectory, dt float64) (float64, error) {
	if a.Dim() != b.Dim() {
		return 0, fmt.Errorf("analysis: trajectory dims %d and %d differ", a.Dim(), b.Dim())
	}
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	if n < 2 {
		return 0, fmt.Errorf("analysis: need at least 2 common steps, got %d", n)
	}
	if dt <= 0 {
		return 0, fmt.Errorf("analysis: dt must be positive, got %g", dt)
	}

	logSep := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		sep := a.At(i).Sub(b.At(i)).Norm()
		if sep == 0 {
			continue
		}
		logSep = append(logSep, math.Log(sep))
	}
	if len(logSep) < 2 {
		return 0, fmt.Errorf("analysis: trajectories never separate")
	}

	// stop fitting once the separation saturates at the attractor scale
	peak := 0
	for i, v := range logSep {
		if v > logSep[peak] {
			peak = i
		}
	}
	if peak < 1 {
		peak = len(logSep) - 1
	}

	// least squares slope of ln separation against time
	var sumT, sumY, sumTT, sumTY float64
	m := float64(peak + 1)
	for i := 0; i <= peak; i++ {
		t := float64(i) * dt
		sumT += t
		sumY += logSep[i]
		sumTT += t * t
		sumTY += t * logSep[i]
	}
	denom := m*sumTT - sumT*sumT
	if denom == 0 {
		return 0, fmt.Errorf("analysis: degenerate fit window")
	}
	return (m*sumTY - sumT*sumY) / denom, nil
}
