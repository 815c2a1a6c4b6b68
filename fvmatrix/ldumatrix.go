package fvmatrix

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/z-g-h/dafoam/fvmesh"
)

/*
The finite volume discretization couples each control volume only to its
immediate topological neighbours, so one equation is fully described by
three arrays in the mesh's canonical connection ordering:
  - Diag:  one coefficient per cell
  - Upper: coefficient of x[neighbour] in the owner cell's row
  - Lower: coefficient of x[owner] in the neighbour cell's row

The algebraic transpose is obtained by swapping the roles of Upper and
Lower while keeping Diag unchanged.
*/
type LduMatrix struct {
	Diag   []float64
	Upper  []float64
	Lower  []float64
	Source []float64 // right hand side
	conns  []fvmesh.Connection
}

func NewLduMatrix(msh *fvmesh.Mesh) (A *LduMatrix) {
	A = &LduMatrix{
		Diag:   make([]float64, msh.NCells),
		Upper:  make([]float64, msh.NConnections()),
		Lower:  make([]float64, msh.NConnections()),
		Source: make([]float64, msh.NCells),
		conns:  msh.Connections,
	}
	return
}

func (A *LduMatrix) NCells() int { return len(A.Diag) }

func (A *LduMatrix) Connections() []fvmesh.Connection { return A.conns }

// Reset zeroes all coefficients and the source so the matrix can be
// reassembled in place.
func (A *LduMatrix) Reset() {
	for i := range A.Diag {
		A.Diag[i] = 0
		A.Source[i] = 0
	}
	for i := range A.Upper {
		A.Upper[i] = 0
		A.Lower[i] = 0
	}
}

// MatVec mutates y such that y = A x and returns y.
func (A *LduMatrix) MatVec(x, y []float64) []float64 {
	A.checkLen(x, "x")
	A.checkLen(y, "y")
	for k := range y {
		y[k] = A.Diag[k] * x[k]
	}
	for i, c := range A.conns {
		y[c.Owner] += A.Upper[i] * x[c.Neighbour]
		y[c.Neighbour] += A.Lower[i] * x[c.Owner]
	}
	return y
}

// TMatVec mutates y such that y = Aᵀ x and returns y.
func (A *LduMatrix) TMatVec(x, y []float64) []float64 {
	A.checkLen(x, "x")
	A.checkLen(y, "y")
	for k := range y {
		y[k] = A.Diag[k] * x[k]
	}
	for i, c := range A.conns {
		y[c.Owner] += A.Lower[i] * x[c.Neighbour]
		y[c.Neighbour] += A.Upper[i] * x[c.Owner]
	}
	return y
}

// Residual mutates r such that r = A x - b and returns r.
func (A *LduMatrix) Residual(x, b, r []float64) []float64 {
	A.MatVec(x, r)
	for k := range r {
		r[k] -= b[k]
	}
	return r
}

func (A *LduMatrix) checkLen(v []float64, name string) {
	if len(v) != len(A.Diag) {
		panic(fmt.Errorf("vector %s has length %d, matrix has %d cells",
			name, len(v), len(A.Diag)))
	}
}

// ToCSR exports the three-array representation as a general sparse matrix
// for callers that want to hand the system to external sparse tooling.
func (A *LduMatrix) ToCSR() *sparse.CSR {
	n := len(A.Diag)
	dok := sparse.NewDOK(n, n)
	for k, val := range A.Diag {
		dok.Set(k, k, val)
	}
	for i, c := range A.conns {
		if A.Upper[i] != 0 {
			dok.Set(c.Owner, c.Neighbour, A.Upper[i])
		}
		if A.Lower[i] != 0 {
			dok.Set(c.Neighbour, c.Owner, A.Lower[i])
		}
	}
	return dok.ToCSR()
}

// View is a read-only value snapshot of one equation's coefficients. It is
// copied out, never aliased, so rebuilding the owning equation cannot
// invalidate it.
type View struct {
	Name  string
	Diag  []float64
	Upper []float64
	Lower []float64
}

// Snapshot copies the current coefficients into a View named name.
func (A *LduMatrix) Snapshot(name string) (v View) {
	v = View{
		Name:  name,
		Diag:  append([]float64(nil), A.Diag...),
		Upper: append([]float64(nil), A.Upper...),
		Lower: append([]float64(nil), A.Lower...),
	}
	return
}
