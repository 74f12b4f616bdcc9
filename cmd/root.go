package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"evacsim/cmd/batch"
	"evacsim/cmd/clean"
	"evacsim/cmd/render"
	"evacsim/cmd/repair"
	"evacsim/cmd/simulate"
	"evacsim/cmd/validate"
	"evacsim/pkg/common"
)

var (
	// Global flags
	verbose    bool
	workers    string
	workingDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evacsim",
	Short: "Cellular-automaton pedestrian evacuation simulator",
	Long: `evacsim simulates pedestrian evacuation through a floor-field cellular
automaton model.

It provides commands for:
  - Simulating evacuation of a single environment against one exit set
  - Running batches of simulations across many exit-set configurations
  - Rendering environments, floor fields, and heat maps for inspection
  - Validating environment structure and exit accessibility
  - Repairing corrupted batch result files by regenerating them

Summary statistics over saved batch results are available through the
standalone stats tool (go run evacsim/cmd/stats).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.VerboseEnabled = verbose

		count, err := parseWorkers(workers)
		if err != nil {
			return fmt.Errorf("invalid --workers value: %w", err)
		}
		common.WorkersCount = count
		common.Verbose("Workers: %d (from flag: %s)", common.WorkersCount, workers)

		if workingDir != "" {
			common.Verbose("Changing working directory to: %s", workingDir)
			if err := os.Chdir(workingDir); err != nil {
				return fmt.Errorf("failed to change working directory: %w", err)
			}
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output for debugging")
	rootCmd.PersistentFlags().StringVarP(&workers, "workers", "j", "half", "number of concurrent workers (integer, 'half', or 'full')")
	rootCmd.PersistentFlags().StringVarP(&workingDir, "working-dir", "w", "", "working directory for environment/output paths (default: current directory)")

	rootCmd.AddCommand(simulate.GetCommand())
	rootCmd.AddCommand(validate.GetCommand())
	rootCmd.AddCommand(render.GetCommand())
	rootCmd.AddCommand(batch.GetCommand())
	rootCmd.AddCommand(repair.GetCommand())
	rootCmd.AddCommand(clean.GetCommand())
}

// parseWorkers parses the workers flag value
// Accepts: "full" -> NumCPU(), "half" -> NumCPU()/2, or integer string -> that value
func parseWorkers(value string) (int, error) {
	value = strings.TrimSpace(strings.ToLower(value))

	switch value {
	case "full":
		return runtime.NumCPU(), nil
	case "half":
		count := runtime.NumCPU() / 2
		if count < 1 {
			count = 1
		}
		return count, nil
	default:
		count, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("must be 'full', 'half', or a positive integer (got: %s)", value)
		}
		if count < 1 {
			return 0, fmt.Errorf("must be at least 1 (got: %d)", count)
		}
		return count, nil
	}
}
