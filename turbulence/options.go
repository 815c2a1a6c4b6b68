package turbulence

import (
	"fmt"
	"strings"

	"github.com/z-g-h/dafoam/fvmatrix"
)

type ResidualNorm uint

const (
	NORM_None ResidualNorm = iota
	NORM_CellVolume
)

var (
	ResidualNormNames = map[string]ResidualNorm{
		"none":       NORM_None,
		"cellvolume": NORM_CellVolume,
	}
	ResidualNormPrintNames = []string{"None", "Cell Volume"}
)

func (rn ResidualNorm) Print() (txt string) {
	txt = ResidualNormPrintNames[rn]
	return
}

func NewResidualNorm(label string) (rn ResidualNorm, err error) {
	var (
		ok bool
	)
	label = strings.ToLower(label)
	if rn, ok = ResidualNormNames[label]; !ok {
		err = fmt.Errorf("%w: residual normalization named %s", ErrInvalidArgument, label)
	}
	return
}

// ResidualOptions are the behavior flags for CalcResiduals.
type ResidualOptions struct {
	Norm            ResidualNorm
	IncludeBoundary bool // include boundary-face contributions in the residual
}

// Options is the resolved option bundle a model is constructed with. Config
// parsing happens upstream (InputParameters); this core only consumes the
// resolved values. Zero-valued clip limits fall back to model defaults;
// a zero Prt means unset and makes Prt-dependent queries fail.
type Options struct {
	NuTildaMin    float64
	NutMin        float64
	KMin          float64
	OmegaMin      float64
	Prt           float64
	Norm          ResidualNorm
	Solver        fvmatrix.SolverControls
	Relax         float64 // equation under-relaxation for Correct
	PrintInterval int
}

func DefaultOptions() (opts Options) {
	opts = Options{
		Solver:        fvmatrix.DefaultSolverControls(),
		Relax:         0.7,
		PrintInterval: 100,
	}
	return
}
