package dataset

import (
	"fmt"
	"math"
)

// State is a single spatial snapshot of the system, one value per grid point.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Trajectory is a contiguous sequence of states of fixed dimension,
// indexed by time step. Once built it is treated as read-only; windows
// and splits share the backing array.
type Trajectory struct {
	states []State
	dim    int
}

func New(states []State) (*Trajectory, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("dataset: empty trajectory")
	}
	dim := len(states[0])
	if dim == 0 {
		return nil, fmt.Errorf("dataset: zero-dimensional state")
	}
	for i, s := range states {
		if len(s) != dim {
			return nil, fmt.Errorf("dataset: state %d has dim %d, want %d", i, len(s), dim)
		}
	}
	return &Trajectory{states: states, dim: dim}, nil
}

func (t *Trajectory) Len() int        { return len(t.states) }
func (t *Trajectory) Dim() int        { return t.dim }
func (t *Trajectory) At(i int) State  { return t.states[i] }
func (t *Trajectory) States() []State { return t.states }

// Window returns the half-open sub-trajectory [i, j).
func (t *Trajectory) Window(i, j int) (*Trajectory, error) {
	if i < 0 || j > len(t.states) || i >= j {
		return nil, fmt.Errorf("dataset: invalid window [%d, %d) of %d", i, j, len(t.states))
	}
	return &Trajectory{states: t.states[i:j], dim: t.dim}, nil
}

// Split cuts the trajectory into disjoint train/test windows.
func (t *Trajectory) Split(nTrain int) (train, test *Trajectory, err error) {
	if nTrain <= 0 || nTrain >= len(t.states) {
		return nil, nil, fmt.Errorf("dataset: split point %d out of range (len %d)", nTrain, len(t.states))
	}
	train = &Trajectory{states: t.states[:nTrain], dim: t.dim}
	test = &Trajectory{states: t.states[nTrain:], dim: t.dim}
	return train, test, nil
}

// Scale returns a copy with every component multiplied by factor.
func (t *Trajectory) Scale(factor float64) *Trajectory {
	scaled := make([]State, len(t.states))
	for i, s := range t.states {
		c := make(State, len(s))
		for j, v := range s {
			c[j] = v * factor
		}
		scaled[i] = c
	}
	return &Trajectory{states: scaled, dim: t.dim}
}

// Normalize rescales by 1/sqrt(dim) so the per-step norm is O(1)
// independent of the grid resolution.
func (t *Trajectory) Normalize() *Trajectory {
	return t.Scale(1.0 / math.Sqrt(float64(t.dim)))
}

// Column extracts the time series at a single grid index.
func (t *Trajectory) Column(j int) ([]float64, error) {
	if j < 0 || j >= t.dim {
		return nil, fmt.Errorf("dataset: column %d out of range (dim %d)", j, t.dim)
	}
	col := make([]float64, len(t.states))
	for i, s := range t.states {
		col[i] = s[j]
	}
	return col, nil
}

func (t *Trajectory) IsValid() bool {
	for _, s := range t.states {
		if !s.IsValid() {
			return false
		}
	}
	return true
}
