// Package simulate implements the simulate command, which runs one or
// more independent simulations against a single environment and exit
// configuration and prints or saves the result.
package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"evacsim/pkg/batch"
	"evacsim/pkg/common"
	"evacsim/pkg/environment"
	"evacsim/pkg/grid"
	"evacsim/pkg/pedestrian"
	"evacsim/pkg/render"
	"evacsim/pkg/simulation"
	"evacsim/pkg/ui"
)

var (
	inputFile      string
	outputFile     string
	auxiliaryFile  string
	outputType     string
	numSims        int
	numPedestrians int
	seed           int64
	genRows        int
	genCols        int
	lingerAtExit   bool
	alwaysSmallest bool
	avoidCorners   bool
	allowXMoves    bool
	panicProb      float64
	maxTicks       int
	randomPlace    bool
	showStatus     bool
	showDetails    bool
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"sim"},
	Short:   "Run evacuation simulations against one environment",
	Long: `Run one or more independent simulations of pedestrian evacuation
through a cellular-automaton floor-field model.

Reads an environment drawing (or generates a bordered rectangle when
--rows and --cols are given instead of --input-file), optionally
combines it with an auxiliary exit-batch file (only the first batch
line is used here; use "batch" to sweep every line), runs
--num-simulations independent simulations with deterministic
per-simulation seeding, and prints or saves the requested output: a
per-tick grid trace, per-simulation step counts, or the averaged heat
map.

Examples:
  evacsim simulate --input-file ambientes/room1.txt --num-simulations 100
  evacsim simulate --input-file ambientes/room1.txt --output-type heat-map --output-file output/room1.txt
  evacsim simulate --rows 10 --cols 14 --auxiliary-file saidas/room1.aux --num-pedestrians 20
  evacsim sim --input-file ambientes/room1.txt --output-type trace --seed 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		exitBatches, err := loadExitBatches(env)
		if err != nil {
			return err
		}

		w, closeOutput, err := openOutput()
		if err != nil {
			return err
		}
		defer closeOutput()

		cfg := batch.Config{
			NumSimulations:        numSims,
			NumPedestrians:        numPedestrians,
			BaseSeed:              seed,
			Workers:               1,
			RandomPlacement:       randomPlace,
			MaxTicksPerSimulation: maxTicks,
			Sim: simulation.Config{
				PanicProbability: panicProb,
				AlwaysSmallest:   alwaysSmallest,
				LingerAtExit:     lingerAtExit,
				AvoidCornerMoves: avoidCorners,
				AllowXMoves:      allowXMoves,
			},
		}

		var spin *ui.Spinner
		if outputType == "trace" {
			cfg.TickObserver = func(simIndex, tick int, pop *pedestrian.Population, combined grid.FloatGrid) {
				fmt.Fprintf(w, "simulation %d, tick %d:\n", simIndex, tick)
				render.GridTrace(w, env, combined, pop)
				fmt.Fprintln(w)
			}
		} else {
			spin = ui.NewSpinner("running simulations...")
			spin.Start()
		}

		results, err := batch.RunBatch(context.Background(), env, exitBatches, cfg)
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			return fmt.Errorf("running simulations: %w", err)
		}

		if showStatus {
			render.StatusLine(os.Stdout, "completed %d exit set(s)", len(results))
		}

		return writeResults(w, results)
	},
}

// loadEnvironment reads the environment drawing, or generates a
// wall-bordered rectangle when --rows/--cols are given in place of
// --input-file.
func loadEnvironment() (*environment.Environment, error) {
	if inputFile == "" {
		if genRows < 3 || genCols < 3 {
			return nil, fmt.Errorf("please provide --input-file, or --rows and --cols (each at least 3) to generate a bordered rectangle")
		}
		if auxiliaryFile == "" {
			return nil, fmt.Errorf("a generated rectangle has no drawn exits; provide --auxiliary-file")
		}
		// A generated room has no pedestrian markers to read.
		randomPlace = true
		return environment.Rectangle(genRows, genCols)
	}

	f, err := os.Open(common.ResolveEnvironmentPath(inputFile))
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	mode := environment.WallsExitsAndPedestrians
	if randomPlace {
		mode = environment.WallsAndExits
	}
	env, err := environment.Parse(f, mode)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return env, nil
}

func loadExitBatches(env *environment.Environment) ([]environment.ExitBatch, error) {
	if auxiliaryFile != "" {
		af, err := os.Open(common.ResolveAuxiliaryPath(auxiliaryFile))
		if err != nil {
			return nil, fmt.Errorf("opening auxiliary file: %w", err)
		}
		defer af.Close()
		batches, err := environment.ParseExitBatches(af)
		if err != nil {
			return nil, fmt.Errorf("parsing auxiliary file: %w", err)
		}
		if len(batches) == 0 {
			return nil, fmt.Errorf("auxiliary file %s has no exit-batch lines", auxiliaryFile)
		}
		// simulate runs a single exit configuration; an auxiliary file with
		// more than one line is swept in full by the "batch" command instead.
		return batches[:1], nil
	}

	if len(env.ExitCells) == 0 {
		return nil, fmt.Errorf("environment has no '_' exit cells and no --auxiliary-file was given")
	}
	var eb environment.ExitBatch
	for _, c := range env.ExitCells {
		eb.Exits = append(eb.Exits, []grid.Point{c})
	}
	return []environment.ExitBatch{eb}, nil
}

func openOutput() (io.Writer, func(), error) {
	name := outputFile
	if name == "auto" {
		kind := render.OutputVisual
		switch outputType {
		case "step-counts":
			kind = render.OutputStepCounts
		case "heat-map":
			kind = render.OutputHeatMap
		}
		base := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
		if base == "" || base == "." {
			base = "generated"
		}
		name = render.DefaultOutputPath(kind, base, time.Now())
	}

	resolved := common.ResolveOutputPath(name)
	if resolved == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	closer := func() {
		f.Close()
		common.Info("Wrote results to %s", resolved)
	}
	return f, closer, nil
}

func writeResults(w io.Writer, results []batch.ExitSetResult) error {
	for _, set := range results {
		if set.Skipped {
			if outputType == "step-counts" {
				// Numeric output keeps its shape: one placeholder per
				// simulation that would have run.
				placeholders := make([]int, numSims)
				for i := range placeholders {
					placeholders[i] = -1
				}
				render.StepCounts(w, placeholders)
			} else {
				fmt.Fprintf(w, "exit set %d: skipped (inaccessible exit)\n", set.ExitSetIndex)
			}
			continue
		}

		switch outputType {
		case "step-counts":
			steps := make([]int, len(set.Simulations))
			for i, s := range set.Simulations {
				steps[i] = s.Steps
			}
			render.StepCounts(w, steps)
		case "heat-map":
			mean := set.HeatMap.Mean(len(set.Simulations))
			render.HeatMap(w, mean, nil)
		case "trace":
			// Frames were already written between ticks.
		default:
			fmt.Fprintf(w, "exit set %d: %d simulation(s) completed\n", set.ExitSetIndex, len(set.Simulations))
		}

		if showDetails && outputType != "step-counts" {
			for _, s := range set.Simulations {
				fmt.Fprintf(w, "  simulation %d: %d step(s)\n", s.Index, s.Steps)
			}
		}
	}
	return nil
}

func init() {
	simulateCmd.Flags().StringVar(&inputFile, "input-file", "", "environment drawing file (omit to generate a rectangle with --rows/--cols)")
	simulateCmd.Flags().StringVar(&outputFile, "output-file", "", "file to write output to (default: stdout); \"auto\" derives a timestamped name, and a bare file name is placed under the resolved output directory")
	simulateCmd.Flags().StringVar(&auxiliaryFile, "auxiliary-file", "", "exit-batch auxiliary file (default: use '_' cells from the environment file)")
	simulateCmd.Flags().StringVar(&outputType, "output-type", "summary", "output format: summary, trace, step-counts, or heat-map")
	simulateCmd.Flags().IntVar(&numSims, "num-simulations", 1, "number of independent simulations to run")
	simulateCmd.Flags().IntVar(&numPedestrians, "num-pedestrians", 10, "number of pedestrians to place when using random placement")
	simulateCmd.Flags().Int64Var(&seed, "seed", 1, "base RNG seed (simulation i uses seed+i)")
	simulateCmd.Flags().IntVar(&genRows, "rows", 0, "rows of a generated bordered rectangle (used when --input-file is omitted)")
	simulateCmd.Flags().IntVar(&genCols, "cols", 0, "columns of a generated bordered rectangle (used when --input-file is omitted)")
	simulateCmd.Flags().BoolVar(&randomPlace, "random-placement", false, "place pedestrians at random free cells instead of reading 'p' markers")
	simulateCmd.Flags().BoolVar(&lingerAtExit, "linger-at-exit", true, "pedestrians spend one extra tick at an exit before leaving")
	simulateCmd.Flags().BoolVar(&alwaysSmallest, "always-smallest", false, "always target the globally smallest neighbor, even if occupied")
	simulateCmd.Flags().BoolVar(&avoidCorners, "avoid-corner-moves", true, "forbid diagonal moves that cut across a wall corner")
	simulateCmd.Flags().BoolVar(&allowXMoves, "allow-x-moves", false, "let pedestrians cross paths in an X instead of stopping one side")
	simulateCmd.Flags().Float64Var(&panicProb, "panic-probability", 0.05, "per-tick, per-pedestrian probability of freezing in place")
	simulateCmd.Flags().IntVar(&maxTicks, "max-ticks", 10000, "safety bound on ticks per simulation")
	simulateCmd.Flags().BoolVar(&showStatus, "status", false, "print a timestamped status line when done")
	simulateCmd.Flags().BoolVar(&showDetails, "details", false, "print per-simulation step counts alongside the chosen output")
}

// GetCommand returns the simulate command for registration with root.
func GetCommand() *cobra.Command {
	return simulateCmd
}
