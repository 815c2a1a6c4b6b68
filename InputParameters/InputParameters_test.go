package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`
Title: "Flat plate"
TurbulenceModel: SpalartAllmaras
Nu: 1.5e-5
Prt: 0.9
NuTildaMin: 1.0e-14
ResidualNorm: cellVolume
Tolerance: 1.0e-8
MaxIterations: 2000
RelaxFactor: 0.7
PrintInterval: 50
BCs:
  inlet:
    nuTilda: 4.5e-5
  wall:
    nuTilda: 0.0
`)
	tp := &TurbParameters{}
	require.NoError(t, tp.Parse(data))
	assert.Equal(t, "Flat plate", tp.Title)
	assert.Equal(t, "SpalartAllmaras", tp.TurbulenceModel)
	assert.Equal(t, 1.5e-5, tp.Nu)
	assert.Equal(t, 0.9, tp.Prt)
	assert.Equal(t, 1.0e-14, tp.NuTildaMin)
	assert.Equal(t, "cellVolume", tp.ResidualNorm)
	assert.Equal(t, 2000, tp.MaxIterations)
	assert.Equal(t, 4.5e-5, tp.BCs["inlet"]["nuTilda"])
	assert.Equal(t, 0.0, tp.BCs["wall"]["nuTilda"])
}

func TestParseBad(t *testing.T) {
	tp := &TurbParameters{}
	assert.Error(t, tp.Parse([]byte("Title: [unterminated")))
}
