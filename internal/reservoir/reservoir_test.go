package reservoir

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

func testConfig() Config {
	return Config{
		InputDim:   4,
		Size:       32,
		InputScale: 0.4,
		ResScale:   0.9,
		BiasScale:  0.1,
		LeakRate:   1.0,
		Activation: "erf",
		Structure:  "dense",
		Seed:       7,
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"zero input dim", func(c *Config) { c.InputDim = 0 }, ErrParameterBounds},
		{"zero size", func(c *Config) { c.Size = 0 }, ErrParameterBounds},
		{"zero leak", func(c *Config) { c.LeakRate = 0 }, ErrParameterBounds},
		{"leak above one", func(c *Config) { c.LeakRate = 1.5 }, ErrParameterBounds},
		{"unknown activation", func(c *Config) { c.Activation = "relu" }, ErrUnknownActivation},
		{"unknown structure", func(c *Config) { c.Structure = "toeplitz" }, ErrUnknownStructure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v, want %v", err, tt.err)
		})
	}
}

func TestStep_DimensionMismatch(t *testing.T) {
	res, err := New(testConfig())
	require.NoError(t, err)

	_, err = res.Step(make(dataset.State, 3), res.ZeroState())
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = res.Step(make(dataset.State, 4), make(dataset.State, 5))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestStep_LeakInterpolation(t *testing.T) {
	cfg := testConfig()
	cfg.InputScale = 0
	cfg.ResScale = 0
	cfg.BiasScale = 0
	cfg.LeakRate = 0.5
	res, err := New(cfg)
	require.NoError(t, err)

	prev := make(dataset.State, cfg.Size)
	for i := range prev {
		prev[i] = 1
	}

	// with zero pre-activation, erf contributes nothing and only the
	// leak term survives
	next, err := res.Step(make(dataset.State, cfg.InputDim), prev)
	require.NoError(t, err)
	for i := range next {
		assert.InDelta(t, 0.5, next[i], 1e-12)
	}
}

func TestStep_SaturationBound(t *testing.T) {
	cfg := testConfig()
	cfg.LeakRate = 1.0
	res, err := New(cfg)
	require.NoError(t, err)

	x := dataset.State{100, -100, 100, -100}
	next, err := res.Step(x, res.ZeroState())
	require.NoError(t, err)
	for i := range next {
		assert.LessOrEqual(t, math.Abs(next[i]), 1.0)
	}
}

func TestForward_Shape(t *testing.T) {
	res, err := New(testConfig())
	require.NoError(t, err)

	traj := randomTrajectory(t, 50, 4)
	states, err := res.Forward(traj)
	require.NoError(t, err)
	require.Len(t, states, traj.Len())
	for _, s := range states {
		assert.Len(t, []float64(s), res.Size())
		assert.True(t, s.IsValid())
	}
}

func TestForward_Deterministic(t *testing.T) {
	traj := randomTrajectory(t, 30, 4)

	a, err := New(testConfig())
	require.NoError(t, err)
	b, err := New(testConfig())
	require.NoError(t, err)

	sa, err := a.Forward(traj)
	require.NoError(t, err)
	sb, err := b.Forward(traj)
	require.NoError(t, err)

	for t0 := range sa {
		assert.Equal(t, sa[t0], sb[t0])
	}
}

func TestForward_SeedChangesStates(t *testing.T) {
	traj := randomTrajectory(t, 10, 4)

	cfg := testConfig()
	a, err := New(cfg)
	require.NoError(t, err)
	cfg.Seed++
	b, err := New(cfg)
	require.NoError(t, err)

	sa, err := a.Forward(traj)
	require.NoError(t, err)
	sb, err := b.Forward(traj)
	require.NoError(t, err)
	assert.NotEqual(t, sa[len(sa)-1], sb[len(sb)-1])
}

func TestForward_DimensionMismatch(t *testing.T) {
	res, err := New(testConfig())
	require.NoError(t, err)

	_, err = res.Forward(randomTrajectory(t, 10, 3))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestForward_ReportsStep(t *testing.T) {
	res, err := New(testConfig())
	require.NoError(t, err)

	states := make([]dataset.State, 5)
	for i := range states {
		states[i] = make(dataset.State, 4)
	}
	states[3][0] = math.NaN()
	traj, err := dataset.New(states)
	require.NoError(t, err)

	_, err = res.Forward(traj)
	require.Error(t, err)

	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, 3, evalErr.Step)
	assert.True(t, errors.Is(err, ErrUnstable))
}

func TestActivations(t *testing.T) {
	sign, err := LookupActivation("sign")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sign(0.3))
	assert.Equal(t, -1.0, sign(-0.3))
	assert.Equal(t, 0.0, sign(0))

	tanh, err := LookupActivation("tanh")
	require.NoError(t, err)
	assert.InDelta(t, math.Tanh(0.5), tanh(0.5), 1e-15)

	_, err = LookupActivation("gelu")
	assert.True(t, errors.Is(err, ErrUnknownActivation))

	assert.ElementsMatch(t, []string{"erf", "tanh", "sign"}, Activations())
}

func randomTrajectory(t *testing.T, length, dim int) *dataset.Trajectory {
	t.Helper()
	states := make([]dataset.State, length)
	for i := range states {
		s := make(dataset.State, dim)
		for j := range s {
			s[j] = math.Sin(float64(i*dim+j) * 0.7)
		}
		states[i] = s
	}
	traj, err := dataset.New(states)
	require.NoError(t, err)
	return traj
}
