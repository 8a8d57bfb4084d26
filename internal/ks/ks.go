// Package ks integrates the Kuramoto-Sivashinsky equation
//
//	u_t = -u_xx - u_xxxx - u·u_x
//
// on a periodic domain, producing the chaotic trajectories the
// reservoir is trained on. The integrator is ETDRK4 in Fourier space
// with contour-averaged coefficients and 2/3-rule dealiasing.
package ks

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

// ErrBlowUp indicates the integration produced NaN or Inf values.
var ErrBlowUp = errors.New("ks: integration blew up (NaN or Inf state)")

type Config struct {
	L         float64 `yaml:"length"`    // domain length
	N         int     `yaml:"grid"`      // spatial grid points, must be even
	Dt        float64 `yaml:"dt"`        // time step, equals the sampling interval
	TEnd      float64 `yaml:"tend"`      // recorded integration time
	Transient float64 `yaml:"transient"` // burn-in time discarded before recording
	Eps       float64 `yaml:"eps"`       // amplitude of the seeded initial perturbation
	Seed      int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		L:         32 * math.Pi,
		N:         64,
		Dt:        0.25,
		TEnd:      5000,
		Transient: 250,
		Eps:       0,
	}
}

func (c Config) validate() error {
	if c.N < 4 || c.N%2 != 0 {
		return fmt.Errorf("ks: grid size must be even and >= 4, got %d", c.N)
	}
	if c.L <= 0 {
		return fmt.Errorf("ks: domain length must be positive, got %g", c.L)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("ks: dt must be positive, got %g", c.Dt)
	}
	if c.TEnd <= 0 {
		return fmt.Errorf("ks: tend must be positive, got %g", c.TEnd)
	}
	if c.Transient < 0 {
		return fmt.Errorf("ks: transient must be non-negative, got %g", c.Transient)
	}
	return nil
}

type solver struct {
	cfg Config
	fft *fourier.FFT
	nk  int // half-spectrum length N/2+1

	e, e2         []float64    // exp(h·L), exp(h·L/2)
	q, f1, f2, f3 []float64    // ETDRK4 contour coefficients
	g             []complex128 // -0.5·i·k with dealias mask

	u, w     []float64
	v        []complex128
	nv, a, b []complex128
	na, nb   []complex128
	nc, cbuf []complex128
	spec     []complex128
}

func newSolver(cfg Config) *solver {
	n := cfg.N
	nk := n/2 + 1
	s := &solver{
		cfg:  cfg,
		fft:  fourier.NewFFT(n),
		nk:   nk,
		e:    make([]float64, nk),
		e2:   make([]float64, nk),
		q:    make([]float64, nk),
		f1:   make([]float64, nk),
		f2:   make([]float64, nk),
		f3:   make([]float64, nk),
		g:    make([]complex128, nk),
		u:    make([]float64, n),
		w:    make([]float64, n),
		v:    make([]complex128, nk),
		nv:   make([]complex128, nk),
		a:    make([]complex128, nk),
		b:    make([]complex128, nk),
		na:   make([]complex128, nk),
		nb:   make([]complex128, nk),
		nc:   make([]complex128, nk),
		cbuf: make([]complex128, nk),
		spec: make([]complex128, nk),
	}

	h := cfg.Dt
	cutoff := float64(n) / 3.0
	const m = 16 // contour points for the phi-function averages
	for k := 0; k < nk; k++ {
		wave := 2 * math.Pi * float64(k) / cfg.L
		lin := wave*wave - wave*wave*wave*wave

		s.e[k] = math.Exp(h * lin)
		s.e2[k] = math.Exp(h * lin / 2)

		var q, f1, f2, f3 complex128
		for j := 0; j < m; j++ {
			r := cmplx.Exp(complex(0, math.Pi*(float64(j)+0.5)/m))
			lr := complex(h*lin, 0) + r
			elr := cmplx.Exp(lr)
			elr2 := cmplx.Exp(lr / 2)
			q += (elr2 - 1) / lr
			f1 += (-4 - lr + elr*(4-3*lr+lr*lr)) / (lr * lr * lr)
			f2 += (2 + lr + elr*(-2+lr)) / (lr * lr * lr)
			f3 += (-4 - 3*lr - lr*lr + elr*(4-lr)) / (lr * lr * lr)
		}
		s.q[k] = h * real(q) / m
		s.f1[k] = h * real(f1) / m
		s.f2[k] = h * real(f2) / m
		s.f3[k] = h * real(f3) / m

		if float64(k) < cutoff {
			s.g[k] = complex(0, -0.5*wave)
		}
	}
	return s
}

// nonlinear evaluates -0.5·i·k·F[u²] for the spectrum in src, writing
// the result into dst.
func (s *solver) nonlinear(dst, src []complex128) {
	inv := 1.0 / float64(s.cfg.N)
	copy(s.cbuf, src)
	s.u = s.fft.Sequence(s.u, s.cbuf)
	for i := range s.u {
		ui := s.u[i] * inv
		s.w[i] = ui * ui
	}
	s.spec = s.fft.Coefficients(s.spec, s.w)
	for k := 0; k < s.nk; k++ {
		dst[k] = s.g[k] * s.spec[k]
	}
}

func (s *solver) step() {
	s.nonlinear(s.nv, s.v)
	for k := 0; k < s.nk; k++ {
		s.a[k] = complex(s.e2[k], 0)*s.v[k] + complex(s.q[k], 0)*s.nv[k]
	}
	s.nonlinear(s.na, s.a)
	for k := 0; k < s.nk; k++ {
		s.b[k] = complex(s.e2[k], 0)*s.v[k] + complex(s.q[k], 0)*s.na[k]
	}
	s.nonlinear(s.nb, s.b)
	for k := 0; k < s.nk; k++ {
		s.cbuf[k] = complex(s.e2[k], 0)*s.a[k] + complex(s.q[k], 0)*(2*s.nb[k]-s.nv[k])
	}
	s.nonlinear(s.nc, s.cbuf)
	for k := 0; k < s.nk; k++ {
		s.v[k] = complex(s.e[k], 0)*s.v[k] +
			complex(s.f1[k], 0)*s.nv[k] +
			complex(2*s.f2[k], 0)*(s.na[k]+s.nb[k]) +
			complex(s.f3[k], 0)*s.nc[k]
	}
}

func (s *solver) state() dataset.State {
	inv := 1.0 / float64(s.cfg.N)
	copy(s.cbuf, s.v)
	s.u = s.fft.Sequence(s.u, s.cbuf)
	out := make(dataset.State, s.cfg.N)
	for i := range out {
		out[i] = s.u[i] * inv
	}
	return out
}

// Simulate integrates the PDE and returns the recorded trajectory, one
// state per time step after the transient. Deterministic for a given
// configuration.
func Simulate(cfg Config) (*dataset.Trajectory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := newSolver(cfg)

	u0 := make([]float64, cfg.N)
	for i := range u0 {
		x := cfg.L * float64(i) / float64(cfg.N)
		u0[i] = math.Cos(x/16) * (1 + math.Sin(x/16))
	}
	if cfg.Eps != 0 {
		rng := rand.New(rand.NewSource(cfg.Seed))
		for i := range u0 {
			u0[i] += cfg.Eps * rng.NormFloat64()
		}
	}
	s.v = s.fft.Coefficients(s.v, u0)

	burn := int(math.Round(cfg.Transient / cfg.Dt))
	steps := int(math.Round(cfg.TEnd / cfg.Dt))

	for i := 0; i < burn; i++ {
		s.step()
	}

	states := make([]dataset.State, 0, steps)
	for i := 0; i < steps; i++ {
		s.step()
		st := s.state()
		if !st.IsValid() {
			return nil, fmt.Errorf("%w at step %d", ErrBlowUp, i)
		}
		states = append(states, st)
	}
	return dataset.New(states)
}
