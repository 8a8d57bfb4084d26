package analysis

import (
	"math"
	"testing"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

func TestPowerSpectrum_PureTone(t *testing.T) {
	const n = 128
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Sin(2 * math.Pi * 8 * float64(i) / n)
	}

	ps := PowerSpectrum(series)

	peak := 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if peak != 8 {
		t.Errorf("expected spectral peak at bin 8, got %d", peak)
	}
}

func TestDominantFrequency(t *testing.T) {
	const n = 64
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Cos(2 * math.Pi * 4 * float64(i) / n)
	}
	ps := PowerSpectrum(series)

	freq := DominantFrequency(ps, n, 1.0)
	if math.Abs(freq-4.0/n) > 1e-12 {
		t.Errorf("expected frequency %f, got %f", 4.0/n, freq)
	}
}

func TestMeanSpatialSpectrum(t *testing.T) {
	states := make([]dataset.State, 5)
	for i := range states {
		s := make(dataset.State, 16)
		for j := range s {
			s[j] = math.Sin(2 * math.Pi * 2 * float64(j) / 16)
		}
		states[i] = s
	}
	traj, err := dataset.New(states)
	if err != nil {
		t.Fatal(err)
	}

	mean, err := MeanSpatialSpectrum(traj)
	if err != nil {
		t.Fatal(err)
	}

	peak := 0
	for k := 1; k < len(mean); k++ {
		if mean[k] > mean[peak] {
			peak = k
		}
	}
	if peak != 2 {
		t.Errorf("expected spatial peak at wavenumber 2, got %d", peak)
	}
}

func TestDivergenceRate_ExponentialSeparation(t *testing.T) {
	// two synthetic trajectories separating as exp(0.5 t)
	const n = 50
	const lambda = 0.5
	const dt = 0.1
	a := make([]dataset.State, n)
	b := make([]dataset.State, n)
	for i := 0; i < n; i++ {
		sep := 1e-8 * math.Exp(lambda*float64(i)*dt)
		a[i] = dataset.State{0}
		b[i] = dataset.State{sep}
	}
	ta, _ := dataset.New(a)
	tb, _ := dataset.New(b)

	rate, err := DivergenceRate(ta, tb, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rate-lambda) > 1e-6 {
		t.Errorf("expected rate %f, got %f", lambda, rate)
	}
}

func TestDivergenceRate_Errors(t *testing.T) {
	a, _ := dataset.New([]dataset.State{{0}, {0}})
	b2, _ := dataset.New([]dataset.State{{0, 0}, {0, 0}})
	if _, err := DivergenceRate(a, b2, 0.1); err == nil {
		t.Error("expected error for mismatched dims")
	}

	same, _ := dataset.New([]dataset.State{{1}, {1}})
	if _, err := DivergenceRate(same, same, 0.1); err == nil {
		t.Error("expected error for identical trajectories")
	}

	if _, err := DivergenceRate(a, a, 0); err == nil {
		t.Error("expected error for non-positive dt")
	}
}
