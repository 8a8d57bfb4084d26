package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/reservoir"
)

// featureRow writes [state | renorm·input] into dst. The concatenation
// order and the renormalization factor must match between training and
// prediction; the readout is only valid for rows built this way.
func featureRow(dst []float64, state, input dataset.State, renorm float64) {
	copy(dst, state)
	for i, v := range input {
		dst[len(state)+i] = renorm * v
	}
}

// TrainingSet assembles the ridge inputs from a driven reservoir: X
// holds one feature row [s_t | renorm·x_t] per usable time step and Y
// the flattened next-horizon targets [x_{t+1} … x_{t+horizon}].
func TrainingSet(states []dataset.State, traj *dataset.Trajectory, renorm float64, horizon int) (x, y *mat.Dense, err error) {
	if horizon < 1 {
		return nil, nil, fmt.Errorf("%w: horizon %d", reservoir.ErrParameterBounds, horizon)
	}
	if len(states) != traj.Len() {
		return nil, nil, fmt.Errorf("%w: %d states vs %d inputs", reservoir.ErrDimensionMismatch, len(states), traj.Len())
	}
	rows := traj.Len() - horizon
	if rows <= 0 {
		return nil, nil, fmt.Errorf("%w: trajectory length %d too short for horizon %d", reservoir.ErrParameterBounds, traj.Len(), horizon)
	}

	r := len(states[0])
	d := traj.Dim()
	x = mat.NewDense(rows, r+d, nil)
	y = mat.NewDense(rows, d*horizon, nil)

	for t := 0; t < rows; t++ {
		featureRow(x.RawRowView(t), states[t], traj.At(t), renorm)
		yRow := y.RawRowView(t)
		for h := 0; h < horizon; h++ {
			copy(yRow[h*d:(h+1)*d], traj.At(t+1+h))
		}
	}
	return x, y, nil
}
