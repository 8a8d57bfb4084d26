package reservoir

import (
	"fmt"
	"math/rand"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

// Config holds the fixed hyperparameters of one reservoir instance.
type Config struct {
	InputDim   int     `yaml:"input_dim"`
	Size       int     `yaml:"size"`
	InputScale float64 `yaml:"input_scale"`
	ResScale   float64 `yaml:"res_scale"`
	BiasScale  float64 `yaml:"bias_scale"`
	LeakRate   float64 `yaml:"leak_rate"`
	Activation string  `yaml:"activation"`
	Structure  string  `yaml:"structure"`
	Seed       int64   `yaml:"seed"`
}

func (c Config) validate() error {
	if c.InputDim <= 0 {
		return fmt.Errorf("%w: input_dim %d", ErrParameterBounds, c.InputDim)
	}
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d", ErrParameterBounds, c.Size)
	}
	if c.LeakRate <= 0 || c.LeakRate > 1 {
		return fmt.Errorf("%w: leak_rate %g not in (0, 1]", ErrParameterBounds, c.LeakRate)
	}
	return nil
}

// Reservoir is an echo state network without its readout: fixed random
// input and recurrent projections, a bias vector, a leak rate and a
// saturating nonlinearity. All weights are generated once from the seed
// and immutable afterwards.
type Reservoir struct {
	cfg  Config
	win  Projection // input -> reservoir
	wres Projection // reservoir -> reservoir
	bias []float64
	act  Activation

	inBuf  []float64
	resBuf []float64
}

func New(cfg Config) (*Reservoir, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	act, err := LookupActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}
	build, err := LookupStructure(cfg.Structure)
	if err != nil {
		return nil, err
	}

	// sub-seeds keep the three weight groups independent while the
	// whole instance stays reproducible from one seed
	win := build(cfg.InputDim, cfg.Size, cfg.Seed)
	wres := build(cfg.Size, cfg.Size, cfg.Seed+1)

	rng := rand.New(rand.NewSource(cfg.Seed + 2))
	bias := make([]float64, cfg.Size)
	for i := range bias {
		bias[i] = cfg.BiasScale * rng.NormFloat64()
	}

	return &Reservoir{
		cfg:    cfg,
		win:    win,
		wres:   wres,
		bias:   bias,
		act:    act,
		inBuf:  make([]float64, cfg.Size),
		resBuf: make([]float64, cfg.Size),
	}, nil
}

func (r *Reservoir) Size() int      { return r.cfg.Size }
func (r *Reservoir) InputDim() int  { return r.cfg.InputDim }
func (r *Reservoir) Config() Config { return r.cfg }

// ZeroState returns the initial reservoir state s_{-1}.
func (r *Reservoir) ZeroState() dataset.State {
	return make(dataset.State, r.cfg.Size)
}

// Step advances the reservoir one time step:
//
//	s_t = (1-leak)·s_{t-1} + leak·act(inScale·W_in·x + resScale·W_res·s_{t-1} + bias)
func (r *Reservoir) Step(x, prev dataset.State) (dataset.State, error) {
	if len(x) != r.cfg.InputDim {
		return nil, fmt.Errorf("%w: input dim %d, want %d", ErrDimensionMismatch, len(x), r.cfg.InputDim)
	}
	if len(prev) != r.cfg.Size {
		return nil, fmt.Errorf("%w: state dim %d, want %d", ErrDimensionMismatch, len(prev), r.cfg.Size)
	}

	r.win.Apply(r.inBuf, x)
	r.wres.Apply(r.resBuf, prev)

	leak := r.cfg.LeakRate
	next := make(dataset.State, r.cfg.Size)
	for i := 0; i < r.cfg.Size; i++ {
		pre := r.cfg.InputScale*r.inBuf[i] + r.cfg.ResScale*r.resBuf[i] + r.bias[i]
		next[i] = (1-leak)*prev[i] + leak*r.act(pre)
	}
	return next, nil
}

// Forward drives the reservoir through the whole input trajectory and
// returns the full state sequence, one state per input step.
func (r *Reservoir) Forward(traj *dataset.Trajectory) ([]dataset.State, error) {
	if traj.Dim() != r.cfg.InputDim {
		return nil, fmt.Errorf("%w: trajectory dim %d, want %d", ErrDimensionMismatch, traj.Dim(), r.cfg.InputDim)
	}

	states := make([]dataset.State, traj.Len())
	s := r.ZeroState()
	for t := 0; t < traj.Len(); t++ {
		next, err := r.Step(traj.At(t), s)
		if err != nil {
			return nil, &EvalError{Step: t, Wrapped: err}
		}
		if !next.IsValid() {
			return nil, &EvalError{Step: t, Wrapped: ErrUnstable}
		}
		states[t] = next
		s = next
	}
	return states, nil
}
