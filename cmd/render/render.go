// Package render implements the render command, which prints a visual
// inspection of an environment, its combined floor field, or a heat
// map saved from a previous batch run.
package render

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evacsim/pkg/batch"
	"evacsim/pkg/common"
	"evacsim/pkg/environment"
	"evacsim/pkg/pedestrian"
	renderpkg "evacsim/pkg/render"
)

var (
	inputFile     string
	auxiliaryFile string
	recordFile    string
	style         string
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an environment, floor field, or saved heat map to the terminal",
	Long: `Render prints a visual representation for quick inspection, without
running a simulation.

With --input-file alone, it draws the environment's walls, exits, and
starting pedestrian positions. With --style floor-field, it instead
prints the combined floor field values. With --record-file, it loads a
previously saved batch result and prints its averaged heat map.

Examples:
  evacsim render --input-file ambientes/room1.txt
  evacsim render --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux --style floor-field
  evacsim render --record-file output/room1-batch.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recordFile != "" {
			return renderRecord(cmd, recordFile)
		}
		if inputFile == "" {
			return fmt.Errorf("please provide --input-file or --record-file")
		}
		return renderEnvironment(cmd, inputFile, auxiliaryFile, style)
	},
}

func renderEnvironment(cmd *cobra.Command, path, auxPath, style string) error {
	f, err := os.Open(common.ResolveEnvironmentPath(path))
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	env, err := environment.Parse(f, environment.WallsExitsAndPedestrians)
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	var eb environment.ExitBatch
	if auxPath != "" {
		af, err := os.Open(common.ResolveAuxiliaryPath(auxPath))
		if err != nil {
			return fmt.Errorf("opening auxiliary file: %w", err)
		}
		defer af.Close()
		batches, err := environment.ParseExitBatches(af)
		if err != nil {
			return fmt.Errorf("parsing auxiliary file: %w", err)
		}
		if len(batches) == 0 {
			return fmt.Errorf("auxiliary file has no exit batches")
		}
		eb = batches[0]
	}

	exitSet := &environment.ExitSet{}
	if len(eb.Exits) > 0 {
		for _, cells := range eb.Exits {
			if len(cells) == 0 {
				continue
			}
			e := exitSet.AddExit(cells[0])
			for _, c := range cells[1:] {
				e.Expand(c)
			}
		}
	} else {
		for _, c := range env.ExitCells {
			exitSet.AddExit(c)
		}
	}
	if len(exitSet.Exits) == 0 {
		return fmt.Errorf("environment has no exits and no --auxiliary-file was given")
	}

	for _, e := range exitSet.Exits {
		if err := e.BuildField(env); err != nil {
			return fmt.Errorf("building exit floor field: %w", err)
		}
	}
	if err := exitSet.Combine(); err != nil {
		return fmt.Errorf("combining floor fields: %w", err)
	}

	pop := pedestrian.NewPopulation(env.Rows, env.Cols)
	pop.PlaceFromEnvironment(env)

	w := cmd.OutOrStdout()
	if style == "floor-field" {
		renderpkg.FloorField(w, exitSet.CombinedField)
		return nil
	}
	renderpkg.GridTrace(w, env, exitSet.CombinedField, pop)
	return nil
}

func renderRecord(cmd *cobra.Command, path string) error {
	rec, err := batch.Load(common.ResolveOutputPath(path))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, set := range rec.Results {
		if set.Skipped {
			fmt.Fprintf(w, "exit set %d: skipped (inaccessible exit)\n", set.ExitSetIndex)
			continue
		}
		fmt.Fprintf(w, "exit set %d heat map:\n", set.ExitSetIndex)
		mean := set.HeatMap.Mean(len(set.Simulations))
		renderpkg.HeatMap(w, mean, nil)
	}
	return nil
}

func init() {
	renderCmd.Flags().StringVarP(&inputFile, "input-file", "f", "", "environment drawing file")
	renderCmd.Flags().StringVar(&auxiliaryFile, "auxiliary-file", "", "exit-batch auxiliary file (first batch line is used)")
	renderCmd.Flags().StringVar(&recordFile, "record-file", "", "saved batch-result JSON file to render as a heat map")
	renderCmd.Flags().StringVarP(&style, "style", "s", "unicode", "render style: unicode or floor-field")
}

// GetCommand returns the render command for registration with root.
func GetCommand() *cobra.Command {
	return renderCmd
}
