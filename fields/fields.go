package fields

import (
	"fmt"
	"math"

	"github.com/z-g-h/dafoam/fvmesh"
	"gonum.org/v1/gonum/mat"
)

// VolScalarField holds one scalar value per control volume plus boundary
// values per patch face. Storage is a gonum vector so fields plug directly
// into the dense linear algebra used elsewhere.
type VolScalarField struct {
	Name     string
	mesh     *fvmesh.Mesh
	v        *mat.VecDense
	Boundary map[string][]float64 // keyed by patch name, one value per face
}

func NewVolScalarField(name string, msh *fvmesh.Mesh, initVal float64) (f *VolScalarField) {
	f = &VolScalarField{
		Name:     name,
		mesh:     msh,
		v:        mat.NewVecDense(msh.NCells, nil),
		Boundary: make(map[string][]float64),
	}
	for k := 0; k < msh.NCells; k++ {
		f.v.SetVec(k, initVal)
	}
	for _, p := range msh.Patches {
		bv := make([]float64, len(p.Faces))
		for i := range bv {
			bv[i] = initVal
		}
		f.Boundary[p.Name] = bv
	}
	return
}

func (f *VolScalarField) Mesh() *fvmesh.Mesh     { return f.mesh }
func (f *VolScalarField) Len() int               { return f.v.Len() }
func (f *VolScalarField) At(k int) float64       { return f.v.AtVec(k) }
func (f *VolScalarField) Set(k int, val float64) { f.v.SetVec(k, val) }

// Data exposes the backing slice. Mutations through it are visible to all
// holders of the field reference.
func (f *VolScalarField) Data() []float64 {
	return f.v.RawVector().Data
}

func (f *VolScalarField) Vec() *mat.VecDense { return f.v }

// Copy returns a detached deep copy, boundary values included.
func (f *VolScalarField) Copy() (o *VolScalarField) {
	o = &VolScalarField{
		Name:     f.Name,
		mesh:     f.mesh,
		v:        mat.VecDenseCopyOf(f.v),
		Boundary: make(map[string][]float64),
	}
	for name, bv := range f.Boundary {
		o.Boundary[name] = append([]float64(nil), bv...)
	}
	return
}

// ClipMin enforces a lower bound on interior and boundary values, returning
// the number of values clipped.
func (f *VolScalarField) ClipMin(lower float64) (nClipped int) {
	d := f.Data()
	for k := range d {
		if d[k] < lower {
			d[k] = lower
			nClipped++
		}
	}
	for _, bv := range f.Boundary {
		for i := range bv {
			if bv[i] < lower {
				bv[i] = lower
				nClipped++
			}
		}
	}
	return
}

func (f *VolScalarField) MinMaxMean() (min, max, mean float64) {
	var (
		d = f.Data()
	)
	min, max = math.Inf(1), math.Inf(-1)
	for _, val := range d {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
		mean += val
	}
	mean /= float64(len(d))
	return
}

// VolVectorField holds one 3-vector per control volume, stored row-major in
// a dense matrix of dimension NCells x 3.
type VolVectorField struct {
	Name string
	mesh *fvmesh.Mesh
	m    *mat.Dense
}

func NewVolVectorField(name string, msh *fvmesh.Mesh) (f *VolVectorField) {
	f = &VolVectorField{
		Name: name,
		mesh: msh,
		m:    mat.NewDense(msh.NCells, 3, nil),
	}
	return
}

func (f *VolVectorField) At(k int) (u [3]float64) {
	u[0], u[1], u[2] = f.m.At(k, 0), f.m.At(k, 1), f.m.At(k, 2)
	return
}

func (f *VolVectorField) Set(k int, u [3]float64) {
	f.m.SetRow(k, u[:])
}

func (f *VolVectorField) Mag(k int) float64 {
	u := f.At(k)
	return math.Sqrt(u[0]*u[0] + u[1]*u[1] + u[2]*u[2])
}

func (f *VolVectorField) Dense() *mat.Dense { return f.m }

// SurfaceScalarField holds one scalar per internal connection, in the mesh's
// canonical connection ordering, plus per-patch boundary face values.
type SurfaceScalarField struct {
	Name     string
	mesh     *fvmesh.Mesh
	Internal []float64
	Boundary map[string][]float64
}

func NewSurfaceScalarField(name string, msh *fvmesh.Mesh) (f *SurfaceScalarField) {
	f = &SurfaceScalarField{
		Name:     name,
		mesh:     msh,
		Internal: make([]float64, msh.NConnections()),
		Boundary: make(map[string][]float64),
	}
	for _, p := range msh.Patches {
		f.Boundary[p.Name] = make([]float64, len(p.Faces))
	}
	return
}

// Dimensions is a reduced SI dimension set (mass, length, time exponents),
// enough to distinguish a real density from the uniform unit field used by
// incompressible closures.
type Dimensions struct {
	Mass, Length, Time int
}

var (
	DimDensity       = Dimensions{Mass: 1, Length: -3, Time: 0}
	DimDimensionless = Dimensions{}
)

func (d Dimensions) String() string {
	return fmt.Sprintf("[kg^%d m^%d s^%d]", d.Mass, d.Length, d.Time)
}
