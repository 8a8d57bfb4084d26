// Package forecast builds readout features and runs closed-loop
// multi-step forecasts on a trained reservoir.
package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/metrics"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/reservoir"
)

// Predictor drives the recursive forecast loop. Each step applies the
// readout to the current feature row, feeds the first input-dim
// components back through the reservoir, and rebuilds the feature row
// from the new state and the renormalized prediction. Errors compound
// through the feedback path, which is exactly what distinguishes this
// from one-step-ahead prediction.
type Predictor struct {
	res     *reservoir.Reservoir
	w       *mat.Dense // (R+D) × (D·horizon)
	renorm  float64
	horizon int
}

func NewPredictor(res *reservoir.Reservoir, w *mat.Dense, renorm float64, horizon int) (*Predictor, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon %d", reservoir.ErrParameterBounds, horizon)
	}
	rows, cols := w.Dims()
	wantRows := res.Size() + res.InputDim()
	wantCols := res.InputDim() * horizon
	if rows != wantRows || cols != wantCols {
		return nil, fmt.Errorf("%w: readout is %d×%d, want %d×%d",
			reservoir.ErrDimensionMismatch, rows, cols, wantRows, wantCols)
	}
	return &Predictor{res: res, w: w, renorm: renorm, horizon: horizon}, nil
}

func (p *Predictor) Horizon() int { return p.horizon }

// readout computes feature·W into out.
func (p *Predictor) readout(out, feature []float64) {
	y := mat.NewVecDense(len(out), out)
	y.MulVec(p.w.T(), mat.NewVecDense(len(feature), feature))
}

// Predict runs nSteps of closed-loop recursion starting from the given
// input and reservoir state (normally the last training step). The
// result is strictly causal: row i depends only on rows < i and the
// seed. nSteps == 0 yields an empty path.
func (p *Predictor) Predict(seedInput, seedState dataset.State, nSteps int) (*Path, error) {
	if nSteps < 0 {
		return nil, fmt.Errorf("%w: nSteps %d", reservoir.ErrParameterBounds, nSteps)
	}
	d := p.res.InputDim()
	if len(seedInput) != d {
		return nil, fmt.Errorf("%w: seed input dim %d, want %d", reservoir.ErrDimensionMismatch, len(seedInput), d)
	}
	if len(seedState) != p.res.Size() {
		return nil, fmt.Errorf("%w: seed state dim %d, want %d", reservoir.ErrDimensionMismatch, len(seedState), p.res.Size())
	}

	path := newPath(nSteps, p.horizon, d)
	feature := make([]float64, p.res.Size()+d)
	featureRow(feature, seedState, seedInput, p.renorm)
	state := seedState

	for i := 0; i < nSteps; i++ {
		row := path.row(i)
		p.readout(row, feature)

		// only the first input-dim slice feeds back; later horizon
		// slices are recorded but never reconciled
		xhat := dataset.State(row[:d])
		if !xhat.IsValid() {
			return nil, &reservoir.EvalError{Step: i, Wrapped: reservoir.ErrUnstable}
		}
		next, err := p.res.Step(xhat, state)
		if err != nil {
			return nil, &reservoir.EvalError{Step: i, Wrapped: err}
		}
		state = next
		featureRow(feature, state, xhat, p.renorm)
	}
	return path, nil
}

// TeacherForced runs the same loop but substitutes the true trajectory
// for the model's own predictions at every feedback point. It is the
// oracle baseline: with the feedback error removed its RMSE lower-bounds
// the closed-loop one for the same readout.
func (p *Predictor) TeacherForced(seedInput, seedState dataset.State, truth *dataset.Trajectory) (*Path, error) {
	d := p.res.InputDim()
	if truth.Dim() != d {
		return nil, fmt.Errorf("%w: truth dim %d, want %d", reservoir.ErrDimensionMismatch, truth.Dim(), d)
	}
	if len(seedInput) != d {
		return nil, fmt.Errorf("%w: seed input dim %d, want %d", reservoir.ErrDimensionMismatch, len(seedInput), d)
	}
	if len(seedState) != p.res.Size() {
		return nil, fmt.Errorf("%w: seed state dim %d, want %d", reservoir.ErrDimensionMismatch, len(seedState), p.res.Size())
	}

	nSteps := truth.Len()
	path := newPath(nSteps, p.horizon, d)
	feature := make([]float64, p.res.Size()+d)
	featureRow(feature, seedState, seedInput, p.renorm)
	state := seedState

	for i := 0; i < nSteps; i++ {
		p.readout(path.row(i), feature)

		next, err := p.res.Step(truth.At(i), state)
		if err != nil {
			return nil, &reservoir.EvalError{Step: i, Wrapped: err}
		}
		state = next
		featureRow(feature, state, truth.At(i), p.renorm)
	}
	return path, nil
}

// Path is the (steps, horizon, dim) prediction tensor produced by one
// forecast run.
type Path struct {
	steps   int
	horizon int
	dim     int
	data    []float64
}

func newPath(steps, horizon, dim int) *Path {
	return &Path{steps: steps, horizon: horizon, dim: dim, data: make([]float64, steps*horizon*dim)}
}

func (p *Path) Steps() int   { return p.steps }
func (p *Path) Horizon() int { return p.horizon }
func (p *Path) Dim() int     { return p.dim }

func (p *Path) row(i int) []float64 {
	w := p.horizon * p.dim
	return p.data[i*w : (i+1)*w]
}

// At returns the horizon-h prediction made at recursion step i.
func (p *Path) At(i, h int) dataset.State {
	row := p.row(i)
	return dataset.State(row[h*p.dim : (h+1)*p.dim])
}

// Feedback returns the sequence of next-step estimates, i.e. the slice
// of each row that was fed back into the reservoir.
func (p *Path) Feedback() []dataset.State {
	out := make([]dataset.State, p.steps)
	for i := 0; i < p.steps; i++ {
		out[i] = p.At(i, 0)
	}
	return out
}

// RMSE computes the root mean squared error against the ground truth,
// aligned so that step i, horizon h is compared with truth index i+h.
// The truth window must cover steps+horizon-1 states.
func (p *Path) RMSE(truth *dataset.Trajectory) (float64, error) {
	if p.steps == 0 {
		return 0, nil
	}
	if truth.Dim() != p.dim {
		return 0, fmt.Errorf("%w: truth dim %d, want %d", reservoir.ErrDimensionMismatch, truth.Dim(), p.dim)
	}
	need := p.steps + p.horizon - 1
	if truth.Len() < need {
		return 0, fmt.Errorf("%w: truth length %d, need %d", reservoir.ErrDimensionMismatch, truth.Len(), need)
	}

	m := metrics.NewRMSE()
	for i := 0; i < p.steps; i++ {
		for h := 0; h < p.horizon; h++ {
			m.Observe(p.At(i, h), truth.At(i+h))
		}
	}
	rmse := m.Value()
	if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
		return rmse, reservoir.ErrUnstable
	}
	return rmse, nil
}
