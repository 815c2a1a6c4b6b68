package fvmatrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/z-g-h/dafoam/fvmesh"
	"gonum.org/v1/gonum/mat"
)

func testControls() SolverControls {
	return SolverControls{Tolerance: 1.e-12, MaxIterations: 20000, Relax: 1.}
}

func TestLduMatrix(t *testing.T) {
	// MatVec / TMatVec on an asymmetric 3-cell system
	{
		msh := fvmesh.NewChannel(3, 1.)
		A := NewLduMatrix(msh)
		copy(A.Diag, []float64{4, 5, 6})
		copy(A.Upper, []float64{1, 2})
		copy(A.Lower, []float64{-1, 0.5})
		x := []float64{1, 2, 3}
		y := make([]float64, 3)
		A.MatVec(x, y)
		assert.Equal(t, []float64{4*1 + 1*2, -1*1 + 5*2 + 2*3, 0.5*2 + 6*3}, y)
		A.TMatVec(x, y)
		assert.Equal(t, []float64{4*1 - 1*2, 1*1 + 5*2 + 0.5*3, 2*2 + 6*3}, y)
	}
	// CSR export matches the three-array form
	{
		msh := fvmesh.NewChannel(3, 1.)
		A := NewLduMatrix(msh)
		copy(A.Diag, []float64{4, 5, 6})
		copy(A.Upper, []float64{1, 2})
		copy(A.Lower, []float64{-1, 0.5})
		csr := A.ToCSR()
		x := []float64{1, 2, 3}
		y := make([]float64, 3)
		A.MatVec(x, y)
		var yc mat.VecDense
		yc.MulVec(csr, mat.NewVecDense(3, x))
		for k := 0; k < 3; k++ {
			assert.InDelta(t, y[k], yc.AtVec(k), 1.e-14)
		}
	}
	// Snapshot is a value copy, not a live view
	{
		msh := fvmesh.NewChannel(2, 1.)
		A := NewLduMatrix(msh)
		copy(A.Diag, []float64{2, 2})
		copy(A.Upper, []float64{-1})
		copy(A.Lower, []float64{-1})
		v1 := A.Snapshot("phi")
		v2 := A.Snapshot("phi")
		assert.Equal(t, v1, v2)
		A.Diag[0] = 99
		assert.Equal(t, 2., v1.Diag[0])
	}
}

func TestSolve(t *testing.T) {
	// 2-cell, 1-connection end-to-end: diag [2,2], off-diagonals [-1],
	// rhs [1,1] converges to [1,1] forward and (symmetric here) transposed
	{
		msh := fvmesh.NewChannel(2, 1.)
		A := NewLduMatrix(msh)
		copy(A.Diag, []float64{2, 2})
		copy(A.Upper, []float64{-1})
		copy(A.Lower, []float64{-1})
		b := []float64{1, 1}

		x := make([]float64, 2)
		res, nIter, err := A.Solve(x, b, testControls())
		require.NoError(t, err)
		assert.Less(t, res, 1.e-12)
		assert.Greater(t, nIter, 0)
		assert.InDelta(t, 1., x[0], 1.e-10)
		assert.InDelta(t, 1., x[1], 1.e-10)

		z := make([]float64, 2)
		_, _, err = A.SolveTranspose(z, b, testControls())
		require.NoError(t, err)
		assert.InDelta(t, 1., z[0], 1.e-10)
		assert.InDelta(t, 1., z[1], 1.e-10)
	}
	// Singular system reports non-convergence, never a finite result
	{
		msh := fvmesh.NewChannel(2, 1.)
		A := NewLduMatrix(msh)
		b := []float64{1, 1}
		x := make([]float64, 2)
		_, _, err := A.Solve(x, b, testControls())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNonConvergence))
		_, _, err = A.SolveTranspose(x, b, testControls())
		assert.True(t, errors.Is(err, ErrNonConvergence))
	}
	// Iteration budget exhaustion is reported distinctly, not as success
	{
		msh := fvmesh.NewChannel(50, 1.)
		A := NewLduMatrix(msh)
		for k := range A.Diag {
			A.Diag[k] = 2.
		}
		for i := range A.Upper {
			A.Upper[i] = -1.
			A.Lower[i] = -1.
		}
		b := make([]float64, 50)
		b[25] = 1.
		x := make([]float64, 50)
		ctl := SolverControls{Tolerance: 1.e-14, MaxIterations: 3, Relax: 1.}
		_, _, err := A.Solve(x, b, ctl)
		assert.True(t, errors.Is(err, ErrNonConvergence))
	}
}

func TestTransposeIdentity(t *testing.T) {
	// For an asymmetric A: with z solving Aᵗ z = w, the dot-product
	// identity <A x, z> = <x, w> must hold to solver tolerance
	var (
		msh = fvmesh.NewChannel(8, 1.)
		A   = NewLduMatrix(msh)
	)
	for k := range A.Diag {
		A.Diag[k] = 4. + 0.1*float64(k)
	}
	for i := range A.Upper {
		A.Upper[i] = -1. + 0.05*float64(i)
		A.Lower[i] = -0.5 - 0.1*float64(i)
	}
	var (
		n = msh.NCells
		x = make([]float64, n)
		w = make([]float64, n)
		y = make([]float64, n)
		z = make([]float64, n)
	)
	for k := 0; k < n; k++ {
		x[k] = 1. + 0.3*float64(k%3)
		w[k] = 2. - 0.2*float64(k%5)
	}
	_, _, err := A.SolveTranspose(z, w, testControls())
	require.NoError(t, err)
	A.MatVec(x, y)
	lhs := mat.Dot(mat.NewVecDense(n, y), mat.NewVecDense(n, z))
	rhs := mat.Dot(mat.NewVecDense(n, x), mat.NewVecDense(n, w))
	assert.InDelta(t, rhs, lhs, 1.e-8)
}
