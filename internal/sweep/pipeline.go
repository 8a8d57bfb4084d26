package sweep

import (
	"context"
	"fmt"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/forecast"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/metrics"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/reservoir"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/ridge"
)

// Pipeline is one complete hyperparameter assignment: everything needed
// to build a reservoir, train its readout and run a recursive forecast.
type Pipeline struct {
	Reservoir      reservoir.Config `yaml:"reservoir"`
	Renorm         float64          `yaml:"renorm"`
	Alpha          float64          `yaml:"alpha"`
	Horizon        int              `yaml:"horizon"`
	Recursion      int              `yaml:"recursion"` // forecast steps; <= 0 means as far as the test window allows
	ValidThreshold float64          `yaml:"valid_threshold"`
}

func DefaultPipeline() Pipeline {
	return Pipeline{
		Reservoir: reservoir.Config{
			Size:       1000,
			InputScale: 0.4,
			ResScale:   0.9,
			BiasScale:  0.1,
			LeakRate:   1.0,
			Activation: "erf",
			Structure:  "dense",
			Seed:       1,
		},
		Renorm:         0.1,
		Alpha:          1e-2,
		Horizon:        1,
		Recursion:      0,
		ValidThreshold: 0.5,
	}
}

// SetParam assigns a sweepable hyperparameter by name.
func (p *Pipeline) SetParam(name string, v float64) error {
	switch name {
	case "input_scale":
		p.Reservoir.InputScale = v
	case "res_scale":
		p.Reservoir.ResScale = v
	case "bias_scale":
		p.Reservoir.BiasScale = v
	case "leak_rate":
		p.Reservoir.LeakRate = v
	case "renorm":
		p.Renorm = v
	case "alpha":
		p.Alpha = v
	case "reservoir_size":
		p.Reservoir.Size = int(v)
	case "seed":
		p.Reservoir.Seed = int64(v)
	default:
		return fmt.Errorf("sweep: unknown parameter %q", name)
	}
	return nil
}

// ParamNames lists the hyperparameters SetParam accepts.
func ParamNames() []string {
	return []string{"input_scale", "res_scale", "bias_scale", "leak_rate", "renorm", "alpha", "reservoir_size", "seed"}
}

// Evaluation is the outcome of running one pipeline end to end.
type Evaluation struct {
	RMSE      float64
	ValidTime float64
	Path      *forecast.Path
}

// Evaluate builds the reservoir, trains the readout on the training
// window and scores a closed-loop forecast against the test window.
// The reservoir's input dimension is taken from the data.
func (p Pipeline) Evaluate(ctx context.Context, train, test *dataset.Trajectory) (*Evaluation, error) {
	if train.Dim() != test.Dim() {
		return nil, fmt.Errorf("%w: train dim %d vs test dim %d", reservoir.ErrDimensionMismatch, train.Dim(), test.Dim())
	}
	// a horizon that exceeds the test window would leave zero forecast
	// steps, and an empty path must not score as a perfect configuration
	maxSteps := test.Len() - p.Horizon + 1
	if maxSteps <= 0 {
		return nil, fmt.Errorf("%w: test window of %d too short for horizon %d", reservoir.ErrDimensionMismatch, test.Len(), p.Horizon)
	}

	cfg := p.Reservoir
	cfg.InputDim = train.Dim()
	res, err := reservoir.New(cfg)
	if err != nil {
		return nil, err
	}

	states, err := res.Forward(train)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x, y, err := forecast.TrainingSet(states, train, p.Renorm, p.Horizon)
	if err != nil {
		return nil, err
	}

	w, err := ridge.Train(x, y, p.Alpha)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pred, err := forecast.NewPredictor(res, w, p.Renorm, p.Horizon)
	if err != nil {
		return nil, err
	}

	nSteps := p.Recursion
	if nSteps <= 0 || nSteps > maxSteps {
		nSteps = maxSteps
	}

	seedInput := train.At(train.Len() - 1)
	seedState := states[len(states)-1]
	path, err := pred.Predict(seedInput, seedState, nSteps)
	if err != nil {
		return nil, err
	}

	rmse, err := path.RMSE(test)
	if err != nil {
		return nil, err
	}

	vt := metrics.NewValidTime(p.ValidThreshold)
	for i, fb := range path.Feedback() {
		vt.Observe(fb, test.At(i))
	}

	return &Evaluation{RMSE: rmse, ValidTime: vt.Value(), Path: path}, nil
}
