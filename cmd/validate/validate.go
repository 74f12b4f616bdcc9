// Package validate implements the validate command, which checks an
// environment drawing (and optionally an exit-batch file) for
// structural problems before it is used in a simulation.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evacsim/pkg/common"
	"evacsim/pkg/environment"
)

var (
	inputFile     string
	auxiliaryFile string
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:     "validate",
	Aliases: []string{"val"},
	Short:   "Validate an environment's structure and exit accessibility",
	Long: `Validate checks an environment drawing for structural problems:
a fully-enclosing wall border and sane dimensions. If an auxiliary
exit-batch file is given, every exit batch line is additionally
checked for exit accessibility: whether each exit has at least one
reachable neighboring floor cell.

This is a structural check only: it does not verify that pedestrian
starting positions can reach an exit through the environment's
interior.

Examples:
  evacsim validate --input-file ambientes/room1.txt
  evacsim val --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux`,
	RunE: func(cmd *cobra.Command, args []string) error {
		common.Info("Validating %s...", inputFile)

		f, err := os.Open(common.ResolveEnvironmentPath(inputFile))
		if err != nil {
			return fmt.Errorf("opening input file: %w", err)
		}
		defer f.Close()

		env, err := environment.Parse(f, environment.WallsAndExits)
		if err != nil {
			return fmt.Errorf("parsing environment: %w", err)
		}

		issues := environment.Validate(env)

		if auxiliaryFile != "" {
			af, err := os.Open(common.ResolveAuxiliaryPath(auxiliaryFile))
			if err != nil {
				return fmt.Errorf("opening auxiliary file: %w", err)
			}
			defer af.Close()

			batches, err := environment.ParseExitBatches(af)
			if err != nil {
				return fmt.Errorf("parsing auxiliary file: %w", err)
			}
			for i, eb := range batches {
				for _, issue := range environment.ValidateExitBatch(env, eb) {
					issues = append(issues, environment.Issue{Message: fmt.Sprintf("batch %d: %s", i, issue.Message)})
				}
			}
		}

		if len(issues) == 0 {
			common.Info("OK: no structural issues found")
			return nil
		}

		for _, issue := range issues {
			common.Warning("%s", issue.Message)
		}
		return fmt.Errorf("validation found %d issue(s)", len(issues))
	},
}

func init() {
	validateCmd.Flags().StringVarP(&inputFile, "input-file", "f", "", "environment drawing file (required)")
	validateCmd.Flags().StringVar(&auxiliaryFile, "auxiliary-file", "", "exit-batch auxiliary file to additionally check")
	validateCmd.MarkFlagRequired("input-file")
}

// GetCommand returns the validate command for registration with root.
func GetCommand() *cobra.Command {
	return validateCmd
}
