// Package ridge implements the closed-form L2-regularized least squares
// readout solve (XᵀX + αI)W = XᵀY.
package ridge

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/reservoir"
)

// Train solves argmin_W ||XW − Y||² + alpha·||W||² for the readout
// weight matrix. X is the N×F feature matrix, Y the N×O target matrix,
// alpha >= 0 the regularization strength. The Gram system is solved by
// Cholesky factorization; no explicit inverse is ever formed. With
// alpha == 0 a singular Gram matrix is reported as
// reservoir.ErrSingularMatrix so the caller can skip the configuration.
func Train(x, y mat.Matrix, alpha float64) (*mat.Dense, error) {
	n, f := x.Dims()
	yn, o := y.Dims()
	if n != yn {
		return nil, fmt.Errorf("%w: %d feature rows vs %d target rows", reservoir.ErrDimensionMismatch, n, yn)
	}
	if alpha < 0 {
		return nil, fmt.Errorf("%w: alpha %g", reservoir.ErrParameterBounds, alpha)
	}

	var gram mat.Dense
	gram.Mul(x.T(), x)
	for i := 0; i < f; i++ {
		gram.Set(i, i, gram.At(i, i)+alpha)
	}

	var xty mat.Dense
	xty.Mul(x.T(), y)

	sym := mat.NewSymDense(f, nil)
	for i := 0; i < f; i++ {
		for j := i; j < f; j++ {
			sym.SetSym(i, j, gram.At(i, j))
		}
	}

	w := mat.NewDense(f, o, nil)
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		if err := chol.SolveTo(w, &xty); err != nil {
			return nil, fmt.Errorf("%w: %v", reservoir.ErrSingularMatrix, err)
		}
	} else {
		if alpha == 0 {
			return nil, fmt.Errorf("%w: unregularized Gram matrix is not positive definite", reservoir.ErrSingularMatrix)
		}
		// α > 0 makes the system solvable in exact arithmetic; fall
		// back to a pivoted dense solve when Cholesky loses to roundoff
		if err := w.Solve(&gram, &xty); err != nil {
			return nil, fmt.Errorf("%w: %v", reservoir.ErrSingularMatrix, err)
		}
	}

	if !finite(w) {
		return nil, reservoir.ErrUnstable
	}
	return w, nil
}

func finite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
