package reservoir

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Projection maps an input vector into the reservoir space. Both weight
// structures are generated once from a seed and never mutated; callers
// interact only through Apply so the representations stay interchangeable.
type Projection interface {
	// Apply writes the projected vector into dst. len(x) must equal
	// InDim() and len(dst) must equal OutDim().
	Apply(dst, x []float64)
	InDim() int
	OutDim() int
}

var structures = map[string]func(in, out int, seed int64) Projection{
	"dense":     func(in, out int, seed int64) Projection { return NewDense(in, out, seed) },
	"circulant": func(in, out int, seed int64) Projection { return NewCirculant(in, out, seed) },
}

// LookupStructure resolves a registered projection constructor by name.
func LookupStructure(name string) (func(in, out int, seed int64) Projection, error) {
	fn, ok := structures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStructure, name)
	}
	return fn, nil
}

// Structures lists the registered projection structure names.
func Structures() []string {
	names := make([]string, 0, len(structures))
	for name := range structures {
		names = append(names, name)
	}
	return names
}

// Dense is an explicit out×in matrix with Gaussian entries of variance
// 1/in. The fan-in normalization keeps the output on the scale of the
// input, so the configured weight scales act as the effective gains.
// Multiply cost is O(out·in).
type Dense struct {
	w   *mat.Dense
	in  int
	out int
}

func NewDense(in, out int, seed int64) *Dense {
	rng := rand.New(rand.NewSource(seed))
	norm := 1 / math.Sqrt(float64(in))
	data := make([]float64, out*in)
	for i := range data {
		data[i] = norm * rng.NormFloat64()
	}
	return &Dense{w: mat.NewDense(out, in, data), in: in, out: out}
}

func (d *Dense) InDim() int  { return d.in }
func (d *Dense) OutDim() int { return d.out }

func (d *Dense) Apply(dst, x []float64) {
	y := mat.NewVecDense(d.out, dst)
	y.MulVec(d.w, mat.NewVecDense(d.in, x))
}

// Circulant is a block-circulant projection applied through the FFT.
// Each output block is the circular convolution of a fixed Gaussian
// column with a Rademacher sign-flipped copy of the input, so the
// multiply costs O(out·log(in)) instead of O(out·in). Entries are not
// independent across a block, but their second-order statistics match
// the dense case, which is what reservoir performance depends on.
type Circulant struct {
	fft     *fourier.FFT
	spectra [][]complex128 // per-block FFT of the circulant column
	signs   [][]float64    // per-block Rademacher diagonal
	n       int            // padded block length
	in      int
	out     int
	scratch []float64
	specBuf []complex128
	seqBuf  []float64
}

func NewCirculant(in, out int, seed int64) *Circulant {
	n := 1
	for n < in {
		n <<= 1
	}
	blocks := (out + n - 1) / n

	rng := rand.New(rand.NewSource(seed))
	fft := fourier.NewFFT(n)

	// same 1/sqrt(in) fan-in normalization as the dense structure
	norm := 1 / math.Sqrt(float64(in))
	spectra := make([][]complex128, blocks)
	signs := make([][]float64, blocks)
	col := make([]float64, n)
	for b := 0; b < blocks; b++ {
		for i := range col {
			col[i] = norm * rng.NormFloat64()
		}
		spectra[b] = fft.Coefficients(nil, col)

		sg := make([]float64, in)
		for i := range sg {
			if rng.Int63()&1 == 0 {
				sg[i] = 1
			} else {
				sg[i] = -1
			}
		}
		signs[b] = sg
	}

	return &Circulant{
		fft:     fft,
		spectra: spectra,
		signs:   signs,
		n:       n,
		in:      in,
		out:     out,
		scratch: make([]float64, n),
		specBuf: make([]complex128, n/2+1),
		seqBuf:  make([]float64, n),
	}
}

func (c *Circulant) InDim() int  { return c.in }
func (c *Circulant) OutDim() int { return c.out }

func (c *Circulant) Apply(dst, x []float64) {
	inv := 1.0 / float64(c.n)
	for b := range c.spectra {
		for i := range c.scratch {
			c.scratch[i] = 0
		}
		sg := c.signs[b]
		for i := 0; i < c.in; i++ {
			c.scratch[i] = sg[i] * x[i]
		}

		c.specBuf = c.fft.Coefficients(c.specBuf, c.scratch)
		spec := c.spectra[b]
		for i := range c.specBuf {
			c.specBuf[i] *= spec[i]
		}
		c.seqBuf = c.fft.Sequence(c.seqBuf, c.specBuf)

		// the round trip through Coefficients/Sequence is unnormalized
		lo := b * c.n
		for i := 0; i < c.n && lo+i < c.out; i++ {
			dst[lo+i] = c.seqBuf[i] * inv
		}
	}
}
