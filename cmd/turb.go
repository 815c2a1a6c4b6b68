/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/z-g-h/dafoam/InputParameters"
	"github.com/z-g-h/dafoam/fields"
	"github.com/z-g-h/dafoam/fvmesh"
	"github.com/z-g-h/dafoam/turbulence"
)

type ModelTurb struct {
	InputFile  string
	Cells      int
	Iterations int
	PrintLevel int
	Profile    bool
}

// TurbCmd represents the turb command
var TurbCmd = &cobra.Command{
	Use:   "turb",
	Short: "Run a turbulence closure forward loop plus the adjoint transpose-solve check",
	Long: `
Builds a channel test mesh, selects a closure model through the registry,
runs the forward correction loop to convergence and then exercises the
linear-system extraction and transposed adjoint solve.`,
	Run: func(cmd *cobra.Command, args []string) {
		mt := &ModelTurb{}
		mt.InputFile, _ = cmd.Flags().GetString("inputFile")
		mt.Cells, _ = cmd.Flags().GetInt("cells")
		mt.Iterations, _ = cmd.Flags().GetInt("iterations")
		mt.PrintLevel, _ = cmd.Flags().GetInt("printLevel")
		mt.Profile, _ = cmd.Flags().GetBool("profile")
		tp := processTurbInput(mt)
		RunTurb(mt, tp)
	},
}

func init() {
	rootCmd.AddCommand(TurbCmd)
	TurbCmd.Flags().StringP("inputFile", "I", "", "YAML file for turbulence input parameters like:\n\t- TurbulenceModel\n\t- Nu\n\t- Prt")
	TurbCmd.Flags().IntP("cells", "k", 50, "number of cells in the channel test mesh")
	TurbCmd.Flags().IntP("iterations", "n", 100, "number of outer correction iterations")
	TurbCmd.Flags().IntP("printLevel", "p", 1, "0 silences per-iteration diagnostics")
	TurbCmd.Flags().Bool("profile", false, "write a CPU profile for this run")
}

func processTurbInput(mt *ModelTurb) (tp *InputParameters.TurbParameters) {
	tp = &InputParameters.TurbParameters{
		Title:           "Channel test case",
		TurbulenceModel: "SpalartAllmaras",
		Nu:              1.e-5,
		ResidualNorm:    "none",
	}
	if len(mt.InputFile) == 0 {
		return
	}
	data, err := os.ReadFile(mt.InputFile)
	if err != nil {
		panic(err)
	}
	if err = tp.Parse(data); err != nil {
		panic(err)
	}
	return
}

func RunTurb(mt *ModelTurb, tp *InputParameters.TurbParameters) {
	if mt.Profile {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	tp.Print()

	msh := fvmesh.NewChannel(mt.Cells, 1.)
	fs := fields.NewIncompressibleFieldSet(msh, tp.Nu)
	// Plane shear across the channel so production is active
	for k := 0; k < msh.NCells; k++ {
		fs.U.Set(k, [3]float64{0, msh.WallDist()[k], 0})
	}

	opts := turbulence.DefaultOptions()
	opts.NuTildaMin = tp.NuTildaMin
	opts.NutMin = tp.NutMin
	opts.KMin = tp.KMin
	opts.OmegaMin = tp.OmegaMin
	opts.Prt = tp.Prt
	if tp.Tolerance > 0 {
		opts.Solver.Tolerance = tp.Tolerance
	}
	if tp.MaxIterations > 0 {
		opts.Solver.MaxIterations = tp.MaxIterations
	}
	if tp.RelaxFactor > 0 {
		opts.Relax = tp.RelaxFactor
	}
	if tp.PrintInterval > 0 {
		opts.PrintInterval = tp.PrintInterval
	}
	if len(tp.ResidualNorm) != 0 {
		var err error
		if opts.Norm, err = turbulence.NewResidualNorm(tp.ResidualNorm); err != nil {
			panic(err)
		}
	}

	model, err := turbulence.New(tp.TurbulenceModel, msh, fs, opts)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}

	var states []string
	model.CorrectModelStates(&states)
	fmt.Printf("Model %s, state variables %v\n", model.Type(), states)

	for iter := 1; iter <= mt.Iterations; iter++ {
		printLevel := 0
		if mt.PrintLevel > 0 && (iter == 1 || iter%10 == 0 || iter == mt.Iterations) {
			printLevel = mt.PrintLevel
			fmt.Printf("Iteration %d\n", iter)
		}
		if err = model.Correct(printLevel); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	}

	if err = model.CalcResiduals(turbulence.ResidualOptions{
		Norm:            opts.Norm,
		IncludeBoundary: true,
	}); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}

	// Connectivity handed to the outer adjoint engine
	allCon := turbulence.ConnectivityTable{}
	if err = model.AddModelResidualCon(allCon); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	fmt.Printf("Residual connectivity: %v\n", allCon.ResidualNames())

	// Transpose propagation through each owned equation
	for _, varName := range states {
		view, err := model.GetFvMatrixFields(varName)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		rhs := make([]float64, msh.NCells)
		psi := make([]float64, msh.NCells)
		for k := range rhs {
			rhs[k] = 1.
		}
		if err = model.SolveAdjointFP(varName, rhs, psi); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("Adjoint solve %s: %d cells, %d connections, psi[0] = %g\n",
			varName, len(view.Diag), len(view.Upper), psi[0])
	}
}
