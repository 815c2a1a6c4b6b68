package fvmatrix

import (
	"github.com/z-g-h/dafoam/fields"
	"github.com/z-g-h/dafoam/fvmesh"
)

/*
	Explicit Gauss operators over the connection list. Face values are linear
	averages of the two adjacent cells; boundary faces use the field's stored
	boundary values with the patch's outward normal. These operators require
	that halo synchronization for the operand fields has already completed.
*/

// GradScalar computes the Gauss gradient of a scalar field.
func GradScalar(msh *fvmesh.Mesh, f *fields.VolScalarField) (g *fields.VolVectorField) {
	g = fields.NewVolVectorField("grad("+f.Name+")", msh)
	var (
		gd = g.Dense()
		d  = f.Data()
	)
	for i, c := range msh.Connections {
		fv := 0.5 * (d[c.Owner] + d[c.Neighbour])
		a := msh.FaceArea[i]
		n := msh.FaceNormal[i]
		for j := 0; j < 3; j++ {
			gd.Set(c.Owner, j, gd.At(c.Owner, j)+fv*a*n[j])
			gd.Set(c.Neighbour, j, gd.At(c.Neighbour, j)-fv*a*n[j])
		}
	}
	for _, p := range msh.Patches {
		bv := f.Boundary[p.Name]
		for i, bf := range p.Faces {
			for j := 0; j < 3; j++ {
				gd.Set(bf.Cell, j, gd.At(bf.Cell, j)+bv[i]*bf.Area*bf.Normal[j])
			}
		}
	}
	for k := 0; k < msh.NCells; k++ {
		oov := 1. / msh.Volumes[k]
		for j := 0; j < 3; j++ {
			gd.Set(k, j, gd.At(k, j)*oov)
		}
	}
	return
}

// GradVector computes the Gauss gradient tensor of a vector field,
// component ordering d(u_row)/d(x_col).
func GradVector(msh *fvmesh.Mesh, U *fields.VolVectorField) (g *fields.VolTensorField) {
	g = fields.NewVolTensorField("grad("+U.Name+")", msh)
	var (
		gd = g.Dense()
	)
	for i, c := range msh.Connections {
		uo, un := U.At(c.Owner), U.At(c.Neighbour)
		a := msh.FaceArea[i]
		n := msh.FaceNormal[i]
		for r := 0; r < 3; r++ {
			uf := 0.5 * (uo[r] + un[r])
			for j := 0; j < 3; j++ {
				ind := 3*r + j
				gd.Set(c.Owner, ind, gd.At(c.Owner, ind)+uf*a*n[j])
				gd.Set(c.Neighbour, ind, gd.At(c.Neighbour, ind)-uf*a*n[j])
			}
		}
	}
	// Boundary faces take the interior cell value (zero-gradient closure for
	// the explicit operator)
	for _, p := range msh.Patches {
		for _, bf := range p.Faces {
			uc := U.At(bf.Cell)
			for r := 0; r < 3; r++ {
				for j := 0; j < 3; j++ {
					ind := 3*r + j
					gd.Set(bf.Cell, ind, gd.At(bf.Cell, ind)+uc[r]*bf.Area*bf.Normal[j])
				}
			}
		}
	}
	for k := 0; k < msh.NCells; k++ {
		oov := 1. / msh.Volumes[k]
		for ind := 0; ind < 9; ind++ {
			gd.Set(k, ind, gd.At(k, ind)*oov)
		}
	}
	return
}

// DivSymmTensor computes the Gauss divergence of a symmetric tensor field,
// one 3-vector per cell.
func DivSymmTensor(msh *fvmesh.Mesh, T *fields.VolSymmTensorField) (div *fields.VolVectorField) {
	div = fields.NewVolVectorField("div("+T.Name+")", msh)
	var (
		dd = div.Dense()
	)
	dot := func(t [9]float64, n [3]float64) (v [3]float64) {
		for r := 0; r < 3; r++ {
			v[r] = t[3*r]*n[0] + t[3*r+1]*n[1] + t[3*r+2]*n[2]
		}
		return
	}
	for i, c := range msh.Connections {
		to, tn := T.Full(c.Owner), T.Full(c.Neighbour)
		var tf [9]float64
		for ind := range tf {
			tf[ind] = 0.5 * (to[ind] + tn[ind])
		}
		a := msh.FaceArea[i]
		n := msh.FaceNormal[i]
		v := dot(tf, n)
		for r := 0; r < 3; r++ {
			dd.Set(c.Owner, r, dd.At(c.Owner, r)+v[r]*a)
			dd.Set(c.Neighbour, r, dd.At(c.Neighbour, r)-v[r]*a)
		}
	}
	for _, p := range msh.Patches {
		for _, bf := range p.Faces {
			v := dot(T.Full(bf.Cell), bf.Normal)
			for r := 0; r < 3; r++ {
				dd.Set(bf.Cell, r, dd.At(bf.Cell, r)+v[r]*bf.Area)
			}
		}
	}
	for k := 0; k < msh.NCells; k++ {
		oov := 1. / msh.Volumes[k]
		for r := 0; r < 3; r++ {
			dd.Set(k, r, dd.At(k, r)*oov)
		}
	}
	return
}
