package turbulence

import (
	"fmt"
	"math"

	"github.com/z-g-h/dafoam/fields"
	"github.com/z-g-h/dafoam/fvmatrix"
	"github.com/z-g-h/dafoam/fvmesh"
)

func init() {
	Register("kOmega", func(msh *fvmesh.Mesh, fs *fields.FieldSet,
		opts Options) (ClosureModel, error) {
		return NewKOmega(msh, fs, opts)
	})
}

/*
Standard Wilcox k-omega closure. Two coupled transport unknowns, so the
single-variable pseudo-equation adjoint operations stay unsupported; the
per-equation coefficient views and the transpose solve are still exposed
for both k and omega.
*/
type KOmega struct {
	turbModel

	k     *fields.VolScalarField // owned
	omega *fields.VolScalarField // owned

	kRes     *fields.VolScalarField
	omegaRes *fields.VolScalarField

	s2 []float64 // cached strain-rate magnitude squared
}

func NewKOmega(msh *fvmesh.Mesh, fs *fields.FieldSet, opts Options) (m *KOmega, err error) {
	var (
		tm turbModel
	)
	if tm, err = newTurbModel("kOmega", msh, fs, opts); err != nil {
		return
	}
	m = &KOmega{
		turbModel: tm,
		k:         fields.NewVolScalarField("k", msh, 1.e-3),
		omega:     fields.NewVolScalarField("omega", msh, 1.),
		kRes:      fields.NewVolScalarField("kRes", msh, 0.),
		omegaRes:  fields.NewVolScalarField("omegaRes", msh, 0.),
		s2:        make([]float64, msh.NCells),
	}
	m.CorrectWallDist()
	m.CorrectBoundaryConditions()
	m.UpdateIntermediateVariables()
	m.CorrectNut()
	return
}

func (m *KOmega) K() *fields.VolScalarField     { return m.k }
func (m *KOmega) Omega() *fields.VolScalarField { return m.omega }

func (m *KOmega) CorrectModelStates(modelStates *[]string) {
	*modelStates = append(*modelStates, "k", "omega")
}

func (m *KOmega) CorrectStateResidualModelCon(stateCon *[][]string) {
	*stateCon = append(*stateCon,
		[]string{"k", "omega", "U", "phi"},
		[]string{"omega", "k", "U", "phi"})
}

func (m *KOmega) AddModelResidualCon(allCon ConnectivityTable) (err error) {
	if err = allCon.Add("kRes", [][]string{{"k", "omega", "U", "phi"}}); err != nil {
		return
	}
	err = allCon.Add("omegaRes", [][]string{{"omega", "k", "U", "phi"}})
	return
}

// CorrectBoundaryConditions: k is zero at walls, omega takes the standard
// near-wall value 6*nu/(beta*y^2); both are zero-gradient elsewhere.
func (m *KOmega) CorrectBoundaryConditions() {
	var (
		nu = m.fs.Nu.Data()
	)
	for _, p := range m.mesh.Patches {
		bk := m.k.Boundary[p.Name]
		bw := m.omega.Boundary[p.Name]
		for i, bf := range p.Faces {
			if p.Type == fvmesh.WALL {
				bk[i] = 0.
				bw[i] = 6. * nu[bf.Cell] / (m.coeffs.Beta * bf.Distance * bf.Distance)
			} else {
				bk[i] = m.k.At(bf.Cell)
				bw[i] = m.omega.At(bf.Cell)
			}
		}
	}
}

// UpdateIntermediateVariables caches the strain-rate magnitude squared,
// 2*S:S, used by the production terms.
func (m *KOmega) UpdateIntermediateVariables() {
	var (
		gradU = fvmatrix.GradVector(m.mesh, m.fs.U)
	)
	for k := 0; k < m.mesh.NCells; k++ {
		g := gradU.At(k)
		var ss float64
		for r := 0; r < 3; r++ {
			for j := 0; j < 3; j++ {
				s := 0.5 * (g[3*r+j] + g[3*j+r])
				ss += 2. * s * s
			}
		}
		m.s2[k] = ss
	}
}

// CorrectNut recomputes nut = k/omega and enforces its clip bound.
func (m *KOmega) CorrectNut() {
	var (
		nut = m.fs.Nut.Data()
	)
	for k := range nut {
		nut[k] = m.k.At(k) / m.omega.At(k)
	}
	m.fs.Nut.ClipMin(m.coeffs.NutMin)
	for _, p := range m.mesh.Patches {
		bv := m.fs.Nut.Boundary[p.Name]
		for i, bf := range p.Faces {
			if p.Type == fvmesh.WALL {
				bv[i] = 0.
			} else {
				bv[i] = m.fs.Nut.At(bf.Cell)
			}
		}
	}
	if m.coeffs.Prt > 0 {
		m.CorrectAlphat()
	}
}

// assembleEqn builds one of the two transport equations. which selects the
// diffusivity, destruction linearization and production source.
func (m *KOmega) assembleEqn(A *fvmatrix.LduMatrix, varName string, includeBoundary bool) {
	var (
		c   = m.coeffs
		msh = m.mesh
		nu  = m.fs.Nu.Data()
		nut = m.fs.Nut.Data()
		phi = m.fs.PhaseRhoPhi.Internal
		f   *fields.VolScalarField
		sig float64
	)
	switch varName {
	case "k":
		f, sig = m.k, c.SigmaK
	case "omega":
		f, sig = m.omega, c.SigmaOmega
	default:
		panic(fmt.Errorf("assembleEqn: unknown variable %s", varName))
	}
	A.Reset()
	for i, conn := range msh.Connections {
		var (
			o, n  = conn.Owner, conn.Neighbour
			F     = phi[i]
			gamma = 0.5 * ((nu[o] + sig*nut[o]) + (nu[n] + sig*nut[n]))
			D     = gamma * msh.FaceArea[i] / msh.FaceDist[i]
		)
		A.Diag[o] += D + math.Max(F, 0)
		A.Upper[i] = -(D + math.Max(-F, 0))
		A.Diag[n] += D + math.Max(-F, 0)
		A.Lower[i] = -(D + math.Max(F, 0))
	}
	for k := 0; k < msh.NCells; k++ {
		var (
			V = msh.Volumes[k]
		)
		switch varName {
		case "k":
			A.Diag[k] += c.BetaStar * m.omega.At(k) * V
			A.Source[k] += nut[k] * m.s2[k] * V
		case "omega":
			A.Diag[k] += c.Beta * m.omega.At(k) * V
			A.Source[k] += c.Alpha * m.s2[k] * V
		}
	}
	if includeBoundary {
		for _, p := range msh.Patches {
			bv := f.Boundary[p.Name]
			for i, bf := range p.Faces {
				if p.Type != fvmesh.WALL && p.Type != fvmesh.INLET {
					continue
				}
				k := bf.Cell
				Db := (nu[k] + sig*nut[k]) * bf.Area / bf.Distance
				A.Diag[k] += Db
				A.Source[k] += Db * bv[i]
			}
		}
	}
}

// CalcResiduals evaluates and caches both nonlinear residuals.
func (m *KOmega) CalcResiduals(opts ResidualOptions) (err error) {
	for _, eq := range []struct {
		varName string
		x, res  []float64
	}{
		{"omega", m.omega.Data(), m.omegaRes.Data()},
		{"k", m.k.Data(), m.kRes.Data()},
	} {
		A := fvmatrix.NewLduMatrix(m.mesh)
		m.assembleEqn(A, eq.varName, opts.IncludeBoundary)
		A.Residual(eq.x, A.Source, eq.res)
		if opts.Norm == NORM_CellVolume {
			for k := range eq.res {
				eq.res[k] /= m.mesh.Volumes[k]
			}
		}
	}
	return
}

// Correct runs one outer iteration: omega then k, the standard sequencing
// for the two-equation family.
func (m *KOmega) Correct(printLevel int) (err error) {
	m.CorrectBoundaryConditions()
	m.UpdateIntermediateVariables()
	A := fvmatrix.NewLduMatrix(m.mesh)
	m.assembleEqn(A, "omega", true)
	if err = m.solveRelaxed(A, m.omega.Data(), "omega", printLevel); err != nil {
		return
	}
	m.omega.ClipMin(m.coeffs.OmegaMin)

	A = fvmatrix.NewLduMatrix(m.mesh)
	m.assembleEqn(A, "k", true)
	if err = m.solveRelaxed(A, m.k.Data(), "k", printLevel); err != nil {
		return
	}
	m.k.ClipMin(m.coeffs.KMin)

	m.CorrectBoundaryConditions()
	m.CorrectNut()
	if printLevel > 0 {
		m.PrintYPlus(printLevel)
	}
	return
}

// solveRelaxed applies implicit under-relaxation and solves. A is a working
// matrix owned by the caller; relaxation mutates it.
func (m *KOmega) solveRelaxed(A *fvmatrix.LduMatrix, x []float64, varName string,
	printLevel int) (err error) {
	var (
		relax = m.opts.Relax
	)
	if relax < 1 {
		for k := range A.Diag {
			aP := A.Diag[k]
			A.Diag[k] = aP / relax
			A.Source[k] += (1. - relax) / relax * aP * x[k]
		}
	}
	finalRes, nIter, err := A.Solve(x, A.Source, m.opts.Solver)
	if err != nil {
		err = fmt.Errorf("Correct(%s): %w", varName, err)
		return
	}
	if printLevel > 0 {
		fmt.Printf("%s eqn: residual %g, %d sweeps\n", varName, finalRes, nIter)
	}
	return
}

// eqnFor assembles the named transport equation at the current state with no
// under-relaxation applied. The coefficient views and the transpose solve
// always see the plain linearization, never the iteration matrix Correct
// relaxed internally.
func (m *KOmega) eqnFor(varName string) (A *fvmatrix.LduMatrix, err error) {
	switch varName {
	case "k", "omega":
	default:
		err = fmt.Errorf("%w: variable %q not owned by %s",
			ErrInvalidArgument, varName, m.modelType)
		return
	}
	m.UpdateIntermediateVariables()
	A = fvmatrix.NewLduMatrix(m.mesh)
	m.assembleEqn(A, varName, true)
	return
}

func (m *KOmega) GetFvMatrixFields(varName string) (v fvmatrix.View, err error) {
	var (
		A *fvmatrix.LduMatrix
	)
	if A, err = m.eqnFor(varName); err != nil {
		err = fmt.Errorf("GetFvMatrixFields: %w", err)
		return
	}
	v = A.Snapshot(varName)
	return
}

func (m *KOmega) SolveAdjointFP(varName string, rhs, result []float64) (err error) {
	var (
		A *fvmatrix.LduMatrix
	)
	if A, err = m.eqnFor(varName); err != nil {
		err = fmt.Errorf("SolveAdjointFP: %w", err)
		return
	}
	if len(rhs) != m.mesh.NCells || len(result) != m.mesh.NCells {
		err = fmt.Errorf("%w: SolveAdjointFP: rhs/result length %d/%d, mesh has %d cells",
			ErrInvalidArgument, len(rhs), len(result), m.mesh.NCells)
		return
	}
	if _, _, err = A.SolveTranspose(result, rhs, m.opts.Solver); err != nil {
		err = fmt.Errorf("SolveAdjointFP(%s): %w", varName, err)
	}
	return
}

// GetTurbProdTerm writes the turbulence kinetic energy production nut*S^2.
func (m *KOmega) GetTurbProdTerm(prodTerm *fields.VolScalarField) (err error) {
	var (
		d   = prodTerm.Data()
		nut = m.fs.Nut.Data()
	)
	for k := range d {
		d[k] = nut[k] * m.s2[k]
	}
	return
}

// GetTurbProdOverDestruct writes Pk over betaStar*k*omega.
func (m *KOmega) GetTurbProdOverDestruct(pod *fields.VolScalarField) (err error) {
	var (
		d   = pod.Data()
		nut = m.fs.Nut.Data()
	)
	for k := range d {
		d[k] = nut[k] * m.s2[k] / (m.coeffs.BetaStar * m.k.At(k) * m.omega.At(k))
	}
	return
}

func (m *KOmega) StateValues() map[string][]float64 {
	return map[string][]float64{
		"k":     append([]float64(nil), m.k.Data()...),
		"omega": append([]float64(nil), m.omega.Data()...),
	}
}
