package turbulence

import (
	"fmt"
	"math"

	"github.com/z-g-h/dafoam/fields"
	"github.com/z-g-h/dafoam/fvmatrix"
	"github.com/z-g-h/dafoam/fvmesh"
)

/*
ClosureModel is the single contract every turbulence closure honors so
the outer adjoint engine never special-cases a model. One concrete
variant is alive per flow case; it borrows the shared flow fields from
the solver-owned FieldSet for its lifetime and owns only its transport
equation unknowns.

The four pseudo-equation operations are the adjoint building blocks for
closures with a single principal transport variable; variants without
that structure report ErrUnsupportedOperation rather than silently doing
nothing.
*/
type ClosureModel interface {
	// Type returns the registered model type tag.
	Type() string

	// CorrectBoundaryConditions refreshes boundary values of the owned
	// fields from the current interior solution. Idempotent.
	CorrectBoundaryConditions()

	// CorrectModelStates appends the names of the state variables this
	// instance owns, in a deterministic order.
	CorrectModelStates(modelStates *[]string)

	// UpdateIntermediateVariables recomputes derived fields cached for
	// residual evaluation. Must run before CalcResiduals.
	UpdateIntermediateVariables()

	// CorrectNut recomputes the shared eddy viscosity from the model's
	// state variables and enforces its clip bound.
	CorrectNut()

	// CorrectStateResidualModelCon appends, per owned state variable, the
	// residual dependency list, in a reproducible order.
	CorrectStateResidualModelCon(stateCon *[][]string)

	// AddModelResidualCon merges this model's connectivity into allCon,
	// keyed per residual; duplicate keys are an error.
	AddModelResidualCon(allCon ConnectivityTable) error

	// CalcResiduals evaluates the nonlinear transport residual at the
	// current state under the supplied behavior flags. Updates the model's
	// residual cache, never the state variables.
	CalcResiduals(opts ResidualOptions) error

	// Correct runs one full forward nonlinear update: boundary correction,
	// intermediate refresh, assembly and solve, clipping, eddy viscosity
	// update. printLevel only gates diagnostics output.
	Correct(printLevel int) error

	// Derived quantities, pure functions of the current state.
	NuEff() *fields.VolScalarField
	AlphaEff() (*fields.VolScalarField, error)
	Nu() *fields.VolScalarField
	Mu() *fields.VolScalarField
	Rho() *fields.VolScalarField
	RhoDimensions() fields.Dimensions
	DevRhoReff() *fields.VolSymmTensorField
	DivDevRhoReff() *fields.VolVectorField

	// Production-term diagnostics.
	GetTurbProdTerm(prodTerm *fields.VolScalarField) error
	GetTurbProdOverDestruct(pod *fields.VolScalarField) error
	GetTurbConvOverProd(cop *fields.VolScalarField) error

	// Adjoint operations (single principal transport variable).
	InvTranProdNuTildaEqn(source, result *fields.VolScalarField) error
	ConstructPseudoNuTildaEqn() error
	RhsSolvePseudoNuTildaEqn(source *fields.VolScalarField) error
	CalcLduResidualTurb(residual *fields.VolScalarField) error

	// Linear-system exposure for the transpose propagation.
	GetFvMatrixFields(varName string) (fvmatrix.View, error)
	SolveAdjointFP(varName string, rhs, result []float64) error

	// Introspection for the external persistence collaborator.
	StateValues() map[string][]float64
}

// turbModel carries the state and derived-quantity machinery shared by all
// concrete closures: the mesh and borrowed flow fields, the coefficient
// table, and the default (unsupported) adjoint operations. Concrete models
// embed it and implement the lifecycle on top.
type turbModel struct {
	modelType string
	mesh      *fvmesh.Mesh
	fs        *fields.FieldSet
	coeffs    Coefficients
	opts      Options
}

func newTurbModel(modelType string, msh *fvmesh.Mesh, fs *fields.FieldSet,
	opts Options) (tm turbModel, err error) {
	var (
		coeffs Coefficients
	)
	if coeffs, err = NewCoefficients(opts); err != nil {
		return
	}
	if opts.Solver.MaxIterations == 0 {
		opts.Solver = fvmatrix.DefaultSolverControls()
	}
	if opts.Relax <= 0 || opts.Relax > 1 {
		opts.Relax = 1.
	}
	tm = turbModel{
		modelType: modelType,
		mesh:      msh,
		fs:        fs,
		coeffs:    coeffs,
		opts:      opts,
	}
	return
}

func (tm *turbModel) Type() string { return tm.modelType }

func (tm *turbModel) Coefficients() Coefficients { return tm.coeffs }

func (tm *turbModel) Nu() *fields.VolScalarField { return tm.fs.Nu }

// Mu returns the molecular dynamic viscosity, rho*nu.
func (tm *turbModel) Mu() (mu *fields.VolScalarField) {
	mu = fields.NewVolScalarField("mu", tm.mesh, 0.)
	var (
		d   = mu.Data()
		nu  = tm.fs.Nu.Data()
		rho = tm.fs.Rho.Data()
	)
	for k := range d {
		d[k] = rho[k] * nu[k]
	}
	return
}

func (tm *turbModel) Rho() *fields.VolScalarField { return tm.fs.Rho }

func (tm *turbModel) RhoDimensions() fields.Dimensions {
	if tm.fs.Compressible {
		return fields.DimDensity
	}
	return fields.DimDimensionless
}

func (tm *turbModel) Phase() *fields.VolScalarField { return tm.fs.Phase }

// NuEff returns the effective (molecular + turbulent) kinematic viscosity,
// rebuilt on every call, never cached.
func (tm *turbModel) NuEff() (nuEff *fields.VolScalarField) {
	nuEff = fields.NewVolScalarField("nuEff", tm.mesh, 0.)
	var (
		d   = nuEff.Data()
		nu  = tm.fs.Nu.Data()
		nut = tm.fs.Nut.Data()
	)
	for k := range d {
		d[k] = nu[k] + nut[k]
	}
	return
}

// Prt returns the turbulent Prandtl number or fails if it was never
// resolved. A sentinel here would silently corrupt downstream sensitivities.
func (tm *turbModel) Prt() (prt float64, err error) {
	if tm.coeffs.Prt > 0 {
		prt = tm.coeffs.Prt
		return
	}
	err = fmt.Errorf("%w: turbulent Prandtl number Prt (model %s)",
		ErrUnsetParameter, tm.modelType)
	return
}

// AlphaEff returns the effective thermal diffusivity,
// rho*(nu/Pr + nut/Prt). Fails when Prt is unset.
func (tm *turbModel) AlphaEff() (alphaEff *fields.VolScalarField, err error) {
	var (
		prt float64
	)
	if prt, err = tm.Prt(); err != nil {
		return
	}
	alphaEff = fields.NewVolScalarField("alphaEff", tm.mesh, 0.)
	var (
		d   = alphaEff.Data()
		nu  = tm.fs.Nu.Data()
		nut = tm.fs.Nut.Data()
		rho = tm.fs.Rho.Data()
	)
	for k := range d {
		d[k] = rho[k] * (nu[k]/tm.coeffs.Pr + nut[k]/prt)
	}
	return
}

// CorrectAlphat refreshes the shared turbulent thermal diffusivity field,
// alphat = rho*nut/Prt.
func (tm *turbModel) CorrectAlphat() (err error) {
	var (
		prt float64
	)
	if prt, err = tm.Prt(); err != nil {
		return
	}
	var (
		d   = tm.fs.Alphat.Data()
		nut = tm.fs.Nut.Data()
		rho = tm.fs.Rho.Data()
	)
	for k := range d {
		d[k] = rho[k] * nut[k] / prt
	}
	return
}

// CorrectWallDist triggers the collaborator-provided wall distance refresh.
func (tm *turbModel) CorrectWallDist() {
	tm.mesh.UpdateWallDist()
}

// DevRhoReff returns the deviatoric turbulent stress contribution,
// -rho*nuEff*(grad(U) + grad(U)^T - 2/3 tr I).
func (tm *turbModel) DevRhoReff() (R *fields.VolSymmTensorField) {
	R = fields.NewVolSymmTensorField("devRhoReff", tm.mesh)
	var (
		gradU = fvmatrix.GradVector(tm.mesh, tm.fs.U)
		nu    = tm.fs.Nu.Data()
		nut   = tm.fs.Nut.Data()
		rho   = tm.fs.Rho.Data()
	)
	for k := 0; k < tm.mesh.NCells; k++ {
		g := gradU.At(k)
		tr3 := (g[fields.XX] + g[fields.YY] + g[fields.ZZ]) * 2. / 3.
		c := -rho[k] * (nu[k] + nut[k])
		R.Set(k, [6]float64{
			c * (2*g[fields.XX] - tr3),
			c * (g[fields.XY] + g[fields.YX]),
			c * (g[fields.XZ] + g[fields.ZX]),
			c * (2*g[fields.YY] - tr3),
			c * (g[fields.YZ] + g[fields.ZY]),
			c * (2*g[fields.ZZ] - tr3),
		})
	}
	return
}

// DivDevRhoReff returns the divergence of the deviatoric stress, the
// momentum-equation source form of the closure's contribution.
func (tm *turbModel) DivDevRhoReff() (div *fields.VolVectorField) {
	div = fvmatrix.DivSymmTensor(tm.mesh, tm.DevRhoReff())
	div.Name = "divDevRhoReff"
	return
}

// IsPrintTime gates periodic diagnostics on the configured interval.
func (tm *turbModel) IsPrintTime(step int) bool {
	if tm.opts.PrintInterval <= 0 {
		return false
	}
	return step%tm.opts.PrintInterval == 0
}

// PrintYPlus prints min/max/mean wall units over all wall patches. Purely
// diagnostic, no effect on numerical results.
func (tm *turbModel) PrintYPlus(printLevel int) {
	if printLevel <= 0 {
		return
	}
	var (
		min, max, sum float64
		n             int
		nu            = tm.fs.Nu.Data()
	)
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, p := range tm.mesh.Patches {
		if p.Type != fvmesh.WALL {
			continue
		}
		for _, bf := range p.Faces {
			uTau := math.Sqrt(nu[bf.Cell] * tm.fs.U.Mag(bf.Cell) / bf.Distance)
			yPlus := uTau * bf.Distance / nu[bf.Cell]
			if yPlus < min {
				min = yPlus
			}
			if yPlus > max {
				max = yPlus
			}
			sum += yPlus
			n++
		}
	}
	if n == 0 {
		return
	}
	fmt.Printf("yPlus min: %g max: %g mean: %g\n", min, max, sum/float64(n))
}

// Default adjoint operations: not every closure has a single principal
// transport variable, so the base reports unsupported rather than silently
// doing nothing.

func (tm *turbModel) unsupported(op string) error {
	return fmt.Errorf("%w: %s (model %s)", ErrUnsupportedOperation, op, tm.modelType)
}

func (tm *turbModel) InvTranProdNuTildaEqn(source, result *fields.VolScalarField) error {
	return tm.unsupported("InvTranProdNuTildaEqn")
}

func (tm *turbModel) ConstructPseudoNuTildaEqn() error {
	return tm.unsupported("ConstructPseudoNuTildaEqn")
}

func (tm *turbModel) RhsSolvePseudoNuTildaEqn(source *fields.VolScalarField) error {
	return tm.unsupported("RhsSolvePseudoNuTildaEqn")
}

func (tm *turbModel) CalcLduResidualTurb(residual *fields.VolScalarField) error {
	return tm.unsupported("CalcLduResidualTurb")
}

func (tm *turbModel) GetTurbProdTerm(prodTerm *fields.VolScalarField) error {
	return tm.unsupported("GetTurbProdTerm")
}

func (tm *turbModel) GetTurbProdOverDestruct(pod *fields.VolScalarField) error {
	return tm.unsupported("GetTurbProdOverDestruct")
}

func (tm *turbModel) GetTurbConvOverProd(cop *fields.VolScalarField) error {
	return tm.unsupported("GetTurbConvOverProd")
}
