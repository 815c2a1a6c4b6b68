package fvmatrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/z-g-h/dafoam/fvmesh"
	"gonum.org/v1/gonum/mat"
)

// ErrNonConvergence is reported when an iterative solve fails to reach its
// tolerance within the iteration budget. It is a distinct, recoverable
// outcome: the caller may relax and retry, this package never does.
var ErrNonConvergence = errors.New("iterative solve did not converge")

// SolverControls bounds every iterative solve. A zero MaxIterations or
// Tolerance is a usage error, the solver has to terminate.
type SolverControls struct {
	Tolerance     float64
	MaxIterations int
	Relax         float64 // under-relaxation factor, 1 = none
}

func DefaultSolverControls() SolverControls {
	return SolverControls{Tolerance: 1.e-10, MaxIterations: 10000, Relax: 1.}
}

// Solve iterates x toward A x = b with damped Jacobi sweeps, terminating when
// the normalized residual drops below ctl.Tolerance. x carries the initial
// guess in and the solution out. The final normalized residual and sweep
// count are returned alongside any non-convergence error.
func (A *LduMatrix) Solve(x, b []float64, ctl SolverControls) (finalRes float64, nIter int, err error) {
	return jacobiSolve(A.Diag, A.Upper, A.Lower, A.conns, x, b, ctl, false)
}

// SolveTranspose solves Aᵀ x = b by swapping the roles of the Upper and
// Lower arrays, using the same sweep algorithm as the forward Solve so the
// two paths stay numerically consistent.
func (A *LduMatrix) SolveTranspose(x, b []float64, ctl SolverControls) (finalRes float64, nIter int, err error) {
	return jacobiSolve(A.Diag, A.Upper, A.Lower, A.conns, x, b, ctl, true)
}

func jacobiSolve(diag, upper, lower []float64, conns []fvmesh.Connection, x, b []float64,
	ctl SolverControls, transpose bool) (finalRes float64, nIter int, err error) {
	var (
		n     = len(diag)
		xNew  = make([]float64, n)
		off   = make([]float64, n)
		bNorm = norm2(b)
	)
	if len(x) != n || len(b) != n {
		panic(fmt.Errorf("solve dimension mismatch: n=%d len(x)=%d len(b)=%d",
			n, len(x), len(b)))
	}
	if ctl.MaxIterations <= 0 || ctl.Tolerance <= 0 {
		panic(fmt.Errorf("solver controls not set: maxIter=%d tol=%g",
			ctl.MaxIterations, ctl.Tolerance))
	}
	relax := ctl.Relax
	if relax <= 0 {
		relax = 1.
	}
	if bNorm == 0 {
		bNorm = 1.
	}
	for nIter = 1; nIter <= ctl.MaxIterations; nIter++ {
		// off = sum of off-diagonal contributions at the current iterate
		for k := range off {
			off[k] = 0
		}
		for i, c := range conns {
			up, lo := upper[i], lower[i]
			if transpose {
				up, lo = lo, up
			}
			off[c.Owner] += up * x[c.Neighbour]
			off[c.Neighbour] += lo * x[c.Owner]
		}
		finalRes = 0
		for k := 0; k < n; k++ {
			xNew[k] = (b[k] - off[k]) / diag[k]
			r := b[k] - off[k] - diag[k]*x[k]
			finalRes += r * r
		}
		finalRes = math.Sqrt(finalRes) / bNorm
		if math.IsNaN(finalRes) || math.IsInf(finalRes, 0) {
			err = fmt.Errorf("%w: residual diverged (singular or zero diagonal) after %d sweeps",
				ErrNonConvergence, nIter)
			return
		}
		if finalRes < ctl.Tolerance {
			for k := 0; k < n; k++ {
				if math.IsNaN(xNew[k]) || math.IsInf(xNew[k], 0) {
					err = fmt.Errorf("%w: non-finite iterate (singular or zero diagonal) after %d sweeps",
						ErrNonConvergence, nIter)
					return
				}
			}
			copy(x, xNew)
			return
		}
		for k := 0; k < n; k++ {
			x[k] += relax * (xNew[k] - x[k])
		}
	}
	nIter = ctl.MaxIterations
	err = fmt.Errorf("%w: residual %g after %d sweeps, tolerance %g",
		ErrNonConvergence, finalRes, nIter, ctl.Tolerance)
	return
}

func norm2(v []float64) float64 {
	return mat.Norm(mat.NewVecDense(len(v), append([]float64(nil), v...)), 2)
}
