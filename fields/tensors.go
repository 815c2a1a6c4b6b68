package fields

import (
	"github.com/z-g-h/dafoam/fvmesh"
	"gonum.org/v1/gonum/mat"
)

// Tensor component ordering for VolTensorField, row-major.
const (
	XX = iota
	XY
	XZ
	YX
	YY
	YZ
	ZX
	ZY
	ZZ
)

// Symmetric tensor component ordering for VolSymmTensorField.
const (
	SXX = iota
	SXY
	SXZ
	SYY
	SYZ
	SZZ
)

// VolTensorField holds one full second-rank tensor per control volume,
// stored as an NCells x 9 dense matrix.
type VolTensorField struct {
	Name string
	mesh *fvmesh.Mesh
	m    *mat.Dense
}

func NewVolTensorField(name string, msh *fvmesh.Mesh) (f *VolTensorField) {
	f = &VolTensorField{
		Name: name,
		mesh: msh,
		m:    mat.NewDense(msh.NCells, 9, nil),
	}
	return
}

func (f *VolTensorField) At(k int) (t [9]float64) {
	copy(t[:], f.m.RawRowView(k))
	return
}

func (f *VolTensorField) Set(k int, t [9]float64) {
	f.m.SetRow(k, t[:])
}

func (f *VolTensorField) Dense() *mat.Dense { return f.m }

// VolSymmTensorField holds one symmetric second-rank tensor per control
// volume (6 independent components), stored as an NCells x 6 dense matrix.
type VolSymmTensorField struct {
	Name string
	mesh *fvmesh.Mesh
	m    *mat.Dense
}

func NewVolSymmTensorField(name string, msh *fvmesh.Mesh) (f *VolSymmTensorField) {
	f = &VolSymmTensorField{
		Name: name,
		mesh: msh,
		m:    mat.NewDense(msh.NCells, 6, nil),
	}
	return
}

func (f *VolSymmTensorField) At(k int) (t [6]float64) {
	copy(t[:], f.m.RawRowView(k))
	return
}

func (f *VolSymmTensorField) Set(k int, t [6]float64) {
	f.m.SetRow(k, t[:])
}

func (f *VolSymmTensorField) Dense() *mat.Dense { return f.m }

// Full expands the 6 stored components into the full 9-component tensor.
func (f *VolSymmTensorField) Full(k int) (t [9]float64) {
	s := f.At(k)
	t[XX], t[XY], t[XZ] = s[SXX], s[SXY], s[SXZ]
	t[YX], t[YY], t[YZ] = s[SXY], s[SYY], s[SYZ]
	t[ZX], t[ZY], t[ZZ] = s[SXZ], s[SYZ], s[SZZ]
	return
}
