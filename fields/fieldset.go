package fields

import "github.com/z-g-h/dafoam/fvmesh"

// FieldSet is the shared primitive state the closure operates on. It is
// owned by the surrounding flow solver; closure models hold it by reference
// for their lifetime and mutate only the turbulence quantities (Nut and
// their own transport unknowns).
type FieldSet struct {
	U           *VolVectorField     // velocity
	Phi         *SurfaceScalarField // face mass flux
	PhaseRhoPhi *SurfaceScalarField // phase*rho*phi flux, equals Phi when incompressible
	Rho         *VolScalarField     // density; a uniform unit field for incompressible cases
	Phase       *VolScalarField     // phase fraction, defaults to one
	Nut         *VolScalarField     // eddy viscosity
	Alphat      *VolScalarField     // turbulent thermal diffusivity
	Nu          *VolScalarField     // molecular kinematic viscosity

	// Compressible marks whether Rho is a real density field. It fixes the
	// dimensions reported for rho-weighted quantities.
	Compressible bool
}

// NewIncompressibleFieldSet builds the standard incompressible field set:
// unit density and phase, zero velocity and fluxes, nut initialized to zero.
func NewIncompressibleFieldSet(msh *fvmesh.Mesh, nu float64) (fs *FieldSet) {
	fs = &FieldSet{
		U:      NewVolVectorField("U", msh),
		Phi:    NewSurfaceScalarField("phi", msh),
		Rho:    NewVolScalarField("rho", msh, 1.),
		Phase:  NewVolScalarField("phase", msh, 1.),
		Nut:    NewVolScalarField("nut", msh, 0.),
		Alphat: NewVolScalarField("alphat", msh, 0.),
		Nu:     NewVolScalarField("nu", msh, nu),
	}
	fs.PhaseRhoPhi = fs.Phi
	return
}
