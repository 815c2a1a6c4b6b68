package turbulence

import (
	"fmt"
	"math"

	"github.com/z-g-h/dafoam/fields"
	"github.com/z-g-h/dafoam/fvmatrix"
	"github.com/z-g-h/dafoam/fvmesh"
)

func init() {
	Register("SpalartAllmaras", func(msh *fvmesh.Mesh, fs *fields.FieldSet,
		opts Options) (ClosureModel, error) {
		return NewSpalartAllmaras(msh, fs, opts)
	})
}

/*
One-equation Spalart-Allmaras closure. Owns the pseudo-viscosity
transport unknown nuTilda; this is the model family the pseudo-equation
adjoint operations are defined for, so every operation of the contract
is implemented here, including the transpose solve of the linearized
nuTilda equation.
*/
type SpalartAllmaras struct {
	turbModel

	nuTilda       *fields.VolScalarField // owned transport unknown
	pseudoNuTilda *fields.VolScalarField // forward solution of the pseudo equation
	nuTildaRes    *fields.VolScalarField // cached nonlinear residual

	// intermediates cached by UpdateIntermediateVariables
	stilda []float64 // modified vorticity magnitude
	fw     []float64 // wall destruction function

	// pseudoEqn is the frozen linearization exposed to the adjoint engine.
	// Its coefficients stay valid until the next construction.
	pseudoEqn *fvmatrix.LduMatrix
}

func NewSpalartAllmaras(msh *fvmesh.Mesh, fs *fields.FieldSet, opts Options) (s *SpalartAllmaras, err error) {
	var (
		tm turbModel
	)
	if tm, err = newTurbModel("SpalartAllmaras", msh, fs, opts); err != nil {
		return
	}
	s = &SpalartAllmaras{
		turbModel:     tm,
		nuTilda:       fields.NewVolScalarField("nuTilda", msh, 0.),
		pseudoNuTilda: fields.NewVolScalarField("pseudoNuTilda", msh, 0.),
		nuTildaRes:    fields.NewVolScalarField("nuTildaRes", msh, 0.),
		stilda:        make([]float64, msh.NCells),
		fw:            make([]float64, msh.NCells),
	}
	// Standard freestream initialization, nuTilda ~ 3 nu
	var (
		d  = s.nuTilda.Data()
		nu = fs.Nu.Data()
	)
	for k := range d {
		d[k] = 3. * nu[k]
	}
	s.CorrectWallDist()
	s.CorrectBoundaryConditions()
	s.UpdateIntermediateVariables()
	s.CorrectNut()
	return
}

func (s *SpalartAllmaras) NuTilda() *fields.VolScalarField { return s.nuTilda }

func (s *SpalartAllmaras) PseudoNuTilda() *fields.VolScalarField { return s.pseudoNuTilda }

func (s *SpalartAllmaras) NuTildaRes() *fields.VolScalarField { return s.nuTildaRes }

// SA closure functions

func (s *SpalartAllmaras) chi(k int) float64 {
	return s.nuTilda.At(k) / s.fs.Nu.At(k)
}

func (s *SpalartAllmaras) fv1(chi float64) float64 {
	var (
		cv13 = s.coeffs.Cv1 * s.coeffs.Cv1 * s.coeffs.Cv1
		chi3 = chi * chi * chi
	)
	return chi3 / (chi3 + cv13)
}

func (s *SpalartAllmaras) fv2(chi float64) float64 {
	return 1. - chi/(1.+chi*s.fv1(chi))
}

func (s *SpalartAllmaras) fwFunc(r float64) float64 {
	var (
		c    = s.coeffs
		g    = r + c.Cw2*(math.Pow(r, 6)-r)
		cw36 = math.Pow(c.Cw3, 6)
		g6   = math.Pow(g, 6)
	)
	return g * math.Pow((1.+cw36)/(g6+cw36), 1./6.)
}

func (s *SpalartAllmaras) CorrectModelStates(modelStates *[]string) {
	*modelStates = append(*modelStates, "nuTilda")
}

func (s *SpalartAllmaras) CorrectStateResidualModelCon(stateCon *[][]string) {
	*stateCon = append(*stateCon, []string{"nuTilda", "U", "phi"})
}

func (s *SpalartAllmaras) AddModelResidualCon(allCon ConnectivityTable) (err error) {
	var (
		stateCon [][]string
	)
	s.CorrectStateResidualModelCon(&stateCon)
	err = allCon.Add("nuTildaRes", stateCon)
	return
}

// CorrectBoundaryConditions refreshes nuTilda boundaries: zero at walls,
// zero-gradient elsewhere.
func (s *SpalartAllmaras) CorrectBoundaryConditions() {
	for _, p := range s.mesh.Patches {
		bv := s.nuTilda.Boundary[p.Name]
		for i, bf := range p.Faces {
			if p.Type == fvmesh.WALL {
				bv[i] = 0.
			} else {
				bv[i] = s.nuTilda.At(bf.Cell)
			}
		}
	}
}

// UpdateIntermediateVariables recomputes the modified vorticity Stilda and
// the destruction function fw from the current state. Must precede
// CalcResiduals.
func (s *SpalartAllmaras) UpdateIntermediateVariables() {
	var (
		c     = s.coeffs
		gradU = fvmatrix.GradVector(s.mesh, s.fs.U)
		y     = s.mesh.WallDist()
		k2    = c.Kappa * c.Kappa
	)
	for k := 0; k < s.mesh.NCells; k++ {
		g := gradU.At(k)
		// vorticity magnitude |curl U|
		wx := g[fields.ZY] - g[fields.YZ]
		wy := g[fields.XZ] - g[fields.ZX]
		wz := g[fields.YX] - g[fields.XY]
		omega := math.Sqrt(wx*wx + wy*wy + wz*wz)

		d2 := y[k] * y[k]
		chi := s.chi(k)
		st := omega + s.nuTilda.At(k)/(k2*d2)*s.fv2(chi)
		if st < 1.e-16 {
			st = 1.e-16
		}
		s.stilda[k] = st

		r := s.nuTilda.At(k) / (st * k2 * d2)
		if r > 10. {
			r = 10.
		}
		s.fw[k] = s.fwFunc(r)
	}
}

// CorrectNut recomputes the shared eddy viscosity, nut = nuTilda*fv1, and
// enforces its clip bound.
func (s *SpalartAllmaras) CorrectNut() {
	var (
		nut = s.fs.Nut.Data()
	)
	for k := range nut {
		nut[k] = s.nuTilda.At(k) * s.fv1(s.chi(k))
	}
	s.fs.Nut.ClipMin(s.coeffs.NutMin)
	for _, p := range s.mesh.Patches {
		bv := s.fs.Nut.Boundary[p.Name]
		for i, bf := range p.Faces {
			if p.Type == fvmesh.WALL {
				bv[i] = 0.
			} else {
				bv[i] = s.fs.Nut.At(bf.Cell)
			}
		}
	}
	if s.coeffs.Prt > 0 {
		s.CorrectAlphat()
	}
}

// assemble builds the linearized nuTilda transport equation: implicit upwind
// convection and face diffusion, implicit destruction, explicit production
// and cross-diffusion in the source. Intermediates must be current.
func (s *SpalartAllmaras) assemble(A *fvmatrix.LduMatrix, includeBoundary bool) {
	var (
		c       = s.coeffs
		msh     = s.mesh
		nu      = s.fs.Nu.Data()
		nuT     = s.nuTilda.Data()
		phi     = s.fs.PhaseRhoPhi.Internal
		y       = msh.WallDist()
		gradNuT = fvmatrix.GradScalar(msh, s.nuTilda)
	)
	A.Reset()
	for i, conn := range msh.Connections {
		var (
			o, n  = conn.Owner, conn.Neighbour
			F     = phi[i]
			gamma = 0.5 * ((nu[o] + nuT[o]) + (nu[n] + nuT[n])) / c.Sigma
			D     = gamma * msh.FaceArea[i] / msh.FaceDist[i]
		)
		A.Diag[o] += D + math.Max(F, 0)
		A.Upper[i] = -(D + math.Max(-F, 0))
		A.Diag[n] += D + math.Max(-F, 0)
		A.Lower[i] = -(D + math.Max(F, 0))
	}
	for k := 0; k < msh.NCells; k++ {
		var (
			V  = msh.Volumes[k]
			d2 = y[k] * y[k]
			g  = gradNuT.At(k)
		)
		// destruction, linearized implicitly on nuTilda
		A.Diag[k] += c.Cw1 * s.fw[k] * (nuT[k] / d2) * V
		// production and cross-diffusion, explicit
		A.Source[k] += c.Cb1 * s.stilda[k] * nuT[k] * V
		A.Source[k] += c.Cb2 / c.Sigma * (g[0]*g[0] + g[1]*g[1] + g[2]*g[2]) * V
	}
	if includeBoundary {
		for _, p := range msh.Patches {
			bv := s.nuTilda.Boundary[p.Name]
			for i, bf := range p.Faces {
				if p.Type != fvmesh.WALL && p.Type != fvmesh.INLET {
					continue // zero gradient contributes nothing
				}
				k := bf.Cell
				Db := (nu[k] + nuT[k]) / c.Sigma * bf.Area / bf.Distance
				A.Diag[k] += Db
				A.Source[k] += Db * bv[i]
			}
		}
	}
}

// CalcResiduals evaluates the nonlinear nuTilda residual at the current
// state, res = A(x)·x - b(x), and caches it. The state itself is untouched.
func (s *SpalartAllmaras) CalcResiduals(opts ResidualOptions) (err error) {
	var (
		A   = fvmatrix.NewLduMatrix(s.mesh)
		res = s.nuTildaRes.Data()
	)
	s.assemble(A, opts.IncludeBoundary)
	A.Residual(s.nuTilda.Data(), A.Source, res)
	if opts.Norm == NORM_CellVolume {
		for k := range res {
			res[k] /= s.mesh.Volumes[k]
		}
	}
	return
}

// Correct runs one outer iteration of the forward nonlinear update as a
// single atomic step: boundary refresh, intermediates, implicit
// under-relaxed solve, clipping and eddy viscosity update.
func (s *SpalartAllmaras) Correct(printLevel int) (err error) {
	var (
		relax = s.opts.Relax
		A     = fvmatrix.NewLduMatrix(s.mesh)
		x     = s.nuTilda.Data()
	)
	s.CorrectBoundaryConditions()
	s.UpdateIntermediateVariables()
	s.assemble(A, true)
	if relax < 1 {
		for k := range A.Diag {
			aP := A.Diag[k]
			A.Diag[k] = aP / relax
			A.Source[k] += (1. - relax) / relax * aP * x[k]
		}
	}
	var (
		finalRes float64
		nIter    int
	)
	if finalRes, nIter, err = A.Solve(x, A.Source, s.opts.Solver); err != nil {
		err = fmt.Errorf("Correct(nuTilda): %w", err)
		return
	}
	s.nuTilda.ClipMin(s.coeffs.NuTildaMin)
	s.CorrectBoundaryConditions()
	s.CorrectNut()
	if printLevel > 0 {
		fmt.Printf("nuTilda eqn: residual %g, %d sweeps\n", finalRes, nIter)
		s.PrintYPlus(printLevel)
	}
	return
}

// ensurePseudoEqn constructs the frozen linearization on first use.
func (s *SpalartAllmaras) ensurePseudoEqn() (err error) {
	if s.pseudoEqn == nil {
		err = s.ConstructPseudoNuTildaEqn()
	}
	return
}

// ConstructPseudoNuTildaEqn builds, without solving, the linear system whose
// coefficients are exposed for the transpose solve. Construction is
// separated from solving so callers can inspect the coefficients first. The
// coefficients are the same linearization Correct solves, not an independent
// re-derivation; that identity is what keeps the adjoint consistent.
func (s *SpalartAllmaras) ConstructPseudoNuTildaEqn() (err error) {
	s.UpdateIntermediateVariables()
	s.pseudoEqn = fvmatrix.NewLduMatrix(s.mesh)
	s.assemble(s.pseudoEqn, true)
	return
}

// RhsSolvePseudoNuTildaEqn solves the constructed pseudo equation in the
// forward sense with source as right-hand side, for consistency checking
// against the transpose path. The solution lands in PseudoNuTilda.
func (s *SpalartAllmaras) RhsSolvePseudoNuTildaEqn(source *fields.VolScalarField) (err error) {
	if err = s.ensurePseudoEqn(); err != nil {
		return
	}
	var (
		x = s.pseudoNuTilda.Data()
	)
	copy(x, s.nuTilda.Data())
	if _, _, err = s.pseudoEqn.Solve(x, source.Data(), s.opts.Solver); err != nil {
		err = fmt.Errorf("RhsSolvePseudoNuTildaEqn: %w", err)
	}
	return
}

// InvTranProdNuTildaEqn applies the inverse transpose of the linearized
// nuTilda operator to source: solves Aᵀ·result = source.
func (s *SpalartAllmaras) InvTranProdNuTildaEqn(source, result *fields.VolScalarField) (err error) {
	if err = s.ensurePseudoEqn(); err != nil {
		return
	}
	var (
		x = result.Data()
	)
	copy(x, source.Data())
	if _, _, err = s.pseudoEqn.SolveTranspose(x, source.Data(), s.opts.Solver); err != nil {
		err = fmt.Errorf("InvTranProdNuTildaEqn: %w", err)
	}
	return
}

// CalcLduResidualTurb evaluates the residual strictly from the stored sparse
// coefficients and the current state, bypassing the nonlinear residual
// cache. Used to verify the exposed system matches the Jacobian action.
func (s *SpalartAllmaras) CalcLduResidualTurb(residual *fields.VolScalarField) (err error) {
	if err = s.ensurePseudoEqn(); err != nil {
		return
	}
	s.pseudoEqn.Residual(s.nuTilda.Data(), s.pseudoEqn.Source, residual.Data())
	return
}

// GetFvMatrixFields returns a value snapshot of the named equation's
// diagonal and off-diagonal coefficient arrays.
func (s *SpalartAllmaras) GetFvMatrixFields(varName string) (v fvmatrix.View, err error) {
	if varName != "nuTilda" {
		err = fmt.Errorf("%w: GetFvMatrixFields: variable %q not owned by %s",
			ErrInvalidArgument, varName, s.modelType)
		return
	}
	if err = s.ensurePseudoEqn(); err != nil {
		return
	}
	v = s.pseudoEqn.Snapshot(varName)
	return
}

// SolveAdjointFP solves Aᵀ·result = rhs for the named equation with the same
// coefficient arrays GetFvMatrixFields exposes.
func (s *SpalartAllmaras) SolveAdjointFP(varName string, rhs, result []float64) (err error) {
	if varName != "nuTilda" {
		err = fmt.Errorf("%w: SolveAdjointFP: variable %q not owned by %s",
			ErrInvalidArgument, varName, s.modelType)
		return
	}
	if len(rhs) != s.mesh.NCells || len(result) != s.mesh.NCells {
		err = fmt.Errorf("%w: SolveAdjointFP: rhs/result length %d/%d, mesh has %d cells",
			ErrInvalidArgument, len(rhs), len(result), s.mesh.NCells)
		return
	}
	if err = s.ensurePseudoEqn(); err != nil {
		return
	}
	if _, _, err = s.pseudoEqn.SolveTranspose(result, rhs, s.opts.Solver); err != nil {
		err = fmt.Errorf("SolveAdjointFP(%s): %w", varName, err)
	}
	return
}

// GetTurbProdTerm writes the production term Cb1*Stilda*nuTilda.
func (s *SpalartAllmaras) GetTurbProdTerm(prodTerm *fields.VolScalarField) (err error) {
	var (
		d = prodTerm.Data()
	)
	for k := range d {
		d[k] = s.coeffs.Cb1 * s.stilda[k] * s.nuTilda.At(k)
	}
	return
}

// GetTurbProdOverDestruct writes the production over destruction ratio.
func (s *SpalartAllmaras) GetTurbProdOverDestruct(pod *fields.VolScalarField) (err error) {
	var (
		c = s.coeffs
		d = pod.Data()
		y = s.mesh.WallDist()
	)
	for k := range d {
		nd := s.nuTilda.At(k) / y[k]
		destruct := c.Cw1 * s.fw[k] * nd * nd
		d[k] = c.Cb1 * s.stilda[k] * s.nuTilda.At(k) / destruct
	}
	return
}

// GetTurbConvOverProd writes the convection over production ratio.
func (s *SpalartAllmaras) GetTurbConvOverProd(cop *fields.VolScalarField) (err error) {
	var (
		d    = cop.Data()
		conv = make([]float64, s.mesh.NCells)
		nuT  = s.nuTilda.Data()
		phi  = s.fs.PhaseRhoPhi.Internal
	)
	for i, conn := range s.mesh.Connections {
		// upwind face value
		up := nuT[conn.Owner]
		if phi[i] < 0 {
			up = nuT[conn.Neighbour]
		}
		conv[conn.Owner] += phi[i] * up
		conv[conn.Neighbour] -= phi[i] * up
	}
	for k := range d {
		prod := s.coeffs.Cb1 * s.stilda[k] * nuT[k] * s.mesh.Volumes[k]
		d[k] = conv[k] / prod
	}
	return
}

func (s *SpalartAllmaras) StateValues() map[string][]float64 {
	return map[string][]float64{
		"nuTilda": append([]float64(nil), s.nuTilda.Data()...),
	}
}
