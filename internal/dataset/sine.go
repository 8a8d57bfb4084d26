package dataset

import "math"

// Sine builds a deterministic unit-amplitude one-dimensional sinusoid,
// used as a trivial forecasting target in smoke runs and tests.
func Sine(length int, period float64) *Trajectory {
	states := make([]State, length)
	for i := range states {
		states[i] = State{math.Sin(2 * math.Pi * float64(i) / period)}
	}
	return &Trajectory{states: states, dim: 1}
}
