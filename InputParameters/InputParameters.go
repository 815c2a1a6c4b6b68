package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type TurbParameters struct {
	Title           string  `yaml:"Title"`
	TurbulenceModel string  `yaml:"TurbulenceModel"`
	Nu              float64 `yaml:"Nu"` // molecular kinematic viscosity
	Prt             float64 `yaml:"Prt"`
	NuTildaMin      float64 `yaml:"NuTildaMin"`
	NutMin          float64 `yaml:"NutMin"`
	KMin            float64 `yaml:"KMin"`
	OmegaMin        float64 `yaml:"OmegaMin"`
	ResidualNorm    string  `yaml:"ResidualNorm"`
	Tolerance       float64 `yaml:"Tolerance"`
	MaxIterations   int     `yaml:"MaxIterations"`
	RelaxFactor     float64 `yaml:"RelaxFactor"`
	PrintInterval   int     `yaml:"PrintInterval"`
	// First key is BC name/type, second is the parameter name
	BCs map[string]map[string]float64 `yaml:"BCs"`
}

func (tp *TurbParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, tp)
}

func (tp *TurbParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", tp.Title)
	fmt.Printf("[%s]\t= Turbulence Model\n", tp.TurbulenceModel)
	fmt.Printf("%8.3e\t\t= Nu\n", tp.Nu)
	fmt.Printf("%8.5f\t\t= Prt\n", tp.Prt)
	fmt.Printf("[%s]\t\t= Residual Normalization\n", tp.ResidualNorm)
	fmt.Printf("%8.1e\t\t= Tolerance\n", tp.Tolerance)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", tp.MaxIterations)
	fmt.Printf("%8.5f\t\t= Relax Factor\n", tp.RelaxFactor)
	keys := make([]string, len(tp.BCs))
	i := 0
	for k := range tp.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, tp.BCs[key])
	}
}
