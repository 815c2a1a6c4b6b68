package turbulence

import "fmt"

// Coefficients is the per-model table of physical constants and clip limits,
// loaded once at construction and immutable afterwards. Clip bounds are
// strictly positive; construction rejects anything else.
type Coefficients struct {
	// Spalart-Allmaras constants
	Cb1, Cb2, Sigma, Kappa float64
	Cw1, Cw2, Cw3, Cv1     float64

	// k-omega constants
	BetaStar, Alpha, Beta float64
	SigmaK, SigmaOmega    float64

	// molecular Prandtl number
	Pr float64

	// turbulent Prandtl number; <= 0 means unset
	Prt float64

	// lower clip bounds
	NuTildaMin float64
	NutMin     float64
	KMin       float64
	OmegaMin   float64
}

// NewCoefficients builds the standard constant set, applying any positive
// clip-limit or Prt overrides from opts.
func NewCoefficients(opts Options) (c Coefficients, err error) {
	c = Coefficients{
		Cb1:   0.1355,
		Cb2:   0.622,
		Sigma: 2. / 3.,
		Kappa: 0.41,
		Cw2:   0.3,
		Cw3:   2.0,
		Cv1:   7.1,

		BetaStar:   0.09,
		Alpha:      0.52,
		Beta:       0.072,
		SigmaK:     0.5,
		SigmaOmega: 0.5,

		Pr: 0.7,

		NuTildaMin: 1.e-16,
		NutMin:     1.e-16,
		KMin:       1.e-16,
		OmegaMin:   1.e-16,
	}
	c.Cw1 = c.Cb1/(c.Kappa*c.Kappa) + (1.+c.Cb2)/c.Sigma
	if opts.NuTildaMin != 0 {
		c.NuTildaMin = opts.NuTildaMin
	}
	if opts.NutMin != 0 {
		c.NutMin = opts.NutMin
	}
	if opts.KMin != 0 {
		c.KMin = opts.KMin
	}
	if opts.OmegaMin != 0 {
		c.OmegaMin = opts.OmegaMin
	}
	if opts.Prt > 0 {
		c.Prt = opts.Prt
	}
	for _, lim := range []struct {
		name string
		val  float64
	}{
		{"nuTildaMin", c.NuTildaMin},
		{"nutMin", c.NutMin},
		{"kMin", c.KMin},
		{"omegaMin", c.OmegaMin},
	} {
		if lim.val <= 0 {
			err = fmt.Errorf("%w: clip bound %s = %g must be strictly positive",
				ErrInvalidArgument, lim.name, lim.val)
			return
		}
	}
	return
}
