/*
Package batch provides the command-line interface for sweeping every
exit configuration in an auxiliary file through many simulations each,
saving the merged results as a single JSON record.

Usage examples:

	evacsim batch --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux --num-simulations 200
	evacsim batch --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux --record-file output/room1-batch.json
*/
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	batchsvc "evacsim/pkg/batch"
	"evacsim/pkg/common"
	"evacsim/pkg/environment"
	"evacsim/pkg/render"
	"evacsim/pkg/simulation"
	"evacsim/pkg/ui"
)

var (
	inputFile      string
	auxiliaryFile  string
	recordFile     string
	numSims        int
	numPedestrians int
	seed           int64
	workers        int
	randomPlace    bool
	lingerAtExit   bool
	alwaysSmallest bool
	avoidCorners   bool
	allowXMoves    bool
	panicProb      float64
	maxTicks       int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run simulations for every exit set in an auxiliary file",
	Long: `Batch runs --num-simulations independent simulations for every exit
configuration listed in an auxiliary file, in parallel across
--workers goroutines per exit set when pedestrians are placed
randomly (explicit 'p' placements share one population and run
sequentially), and saves the merged step counts and heat maps to a
JSON record.

Examples:
  evacsim batch --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux --num-simulations 200
  evacsim batch --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux --workers 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("workers") {
			workers = common.WorkersCount
		}

		f, err := os.Open(common.ResolveEnvironmentPath(inputFile))
		if err != nil {
			return fmt.Errorf("opening input file: %w", err)
		}
		defer f.Close()

		mode := environment.WallsAndExits
		if !randomPlace {
			mode = environment.WallsExitsAndPedestrians
		}
		env, err := environment.Parse(f, mode)
		if err != nil {
			return fmt.Errorf("parsing environment: %w", err)
		}

		af, err := os.Open(common.ResolveAuxiliaryPath(auxiliaryFile))
		if err != nil {
			return fmt.Errorf("opening auxiliary file: %w", err)
		}
		defer af.Close()
		exitBatches, err := environment.ParseExitBatches(af)
		if err != nil {
			return fmt.Errorf("parsing auxiliary file: %w", err)
		}

		cfg := batchsvc.Config{
			NumSimulations:        numSims,
			NumPedestrians:        numPedestrians,
			BaseSeed:              seed,
			Workers:               workers,
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

		common.Info("Running batch over %d exit set(s), %d simulation(s) each...", len(exitBatches), numSims)
		spin := ui.NewSpinner("running batch...")
		spin.Start()

		results, err := batchsvc.RunBatch(context.Background(), env, exitBatches, cfg)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("running batch: %w", err)
		}

		completed, skipped := 0, 0
		for _, r := range results {
			render.ExitSetHeader(os.Stdout, r.ExitSetIndex, exitBatches[r.ExitSetIndex])
			if r.Skipped {
				skipped++
				common.Warning("exit set %d skipped: inaccessible exit", r.ExitSetIndex)
				continue
			}
			completed++
			total := 0
			for _, s := range r.Simulations {
				total += s.Steps
			}
			common.Info("  %d simulation(s), mean %.1f step(s)", len(r.Simulations), float64(total)/float64(len(r.Simulations)))
		}
		common.Info("Batch complete: %d exit set(s) simulated, %d skipped (inaccessible)", completed, skipped)

		if recordFile == "" {
			return nil
		}

		resolved := common.ResolveOutputPath(recordFile)
		record := batchsvc.Record{
			EnvironmentFile: inputFile,
			AuxiliaryFile:   auxiliaryFile,
			Config:          cfg,
			Results:         results,
			GeneratedAt:     time.Now(),
		}
		if err := batchsvc.Save(resolved, record); err != nil {
			return err
		}
		common.Info("Saved batch record to %s", resolved)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&inputFile, "input-file", "f", "", "environment drawing file (required)")
	batchCmd.Flags().StringVarP(&auxiliaryFile, "auxiliary-file", "a", "", "exit-batch auxiliary file (required)")
	batchCmd.Flags().StringVar(&recordFile, "record-file", "", "path to save the batch result JSON (optional); a bare file name is placed under the resolved output directory")
	batchCmd.Flags().IntVar(&numSims, "num-simulations", 100, "number of independent simulations per exit set")
	batchCmd.Flags().IntVar(&numPedestrians, "num-pedestrians", 10, "number of pedestrians when using random placement")
	batchCmd.Flags().Int64Var(&seed, "seed", 1, "base RNG seed (simulation i uses seed+i)")
	batchCmd.Flags().IntVar(&workers, "workers", 1, "number of simulations to run concurrently per exit set (default: the root --workers/-j value)")
	batchCmd.Flags().BoolVar(&randomPlace, "random-placement", false, "place pedestrians at random free cells instead of reading 'p' markers")
	batchCmd.Flags().BoolVar(&lingerAtExit, "linger-at-exit", true, "pedestrians spend one extra tick at an exit before leaving")
	batchCmd.Flags().BoolVar(&alwaysSmallest, "always-smallest", false, "always target the globally smallest neighbor, even if occupied")
	batchCmd.Flags().BoolVar(&avoidCorners, "avoid-corner-moves", true, "forbid diagonal moves that cut across a wall corner")
	batchCmd.Flags().BoolVar(&allowXMoves, "allow-x-moves", false, "let pedestrians cross paths in an X instead of stopping one side")
	batchCmd.Flags().Float64Var(&panicProb, "panic-probability", 0.05, "per-tick, per-pedestrian probability of freezing in place")
	batchCmd.Flags().IntVar(&maxTicks, "max-ticks", 10000, "safety bound on ticks per simulation")

	batchCmd.MarkFlagRequired("input-file")
	batchCmd.MarkFlagRequired("auxiliary-file")
}

// GetCommand returns the batch command for registration with root.
func GetCommand() *cobra.Command {
	return batchCmd
}
