// Package repair implements the repair command, which scans saved
// batch-result JSON files and regenerates any that parse but hold no
// results.
package repair

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"evacsim/pkg/batch"
	"evacsim/pkg/common"
	"evacsim/pkg/environment"
)

var (
	directoryFlag string
	dryRunFlag    bool
)

// RepairCmd repairs corrupted batch result files by regenerating them.
var RepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair corrupted batch result files by regenerating them",
	Long: `Scan a directory of saved batch-result JSON files and regenerate any
that parse but hold no results, by re-running the batch from the
environment file, auxiliary file, and configuration recorded in them.
A file that fails to parse is reported as failed and is not
regenerated: its recorded file references cannot be read.

Because every simulation is seeded deterministically
from the recorded base seed, a regenerated record reproduces the
original run's step counts and heat maps exactly, provided the
referenced environment and auxiliary files are unchanged.

Examples:
  evacsim repair --directory output
  evacsim repair --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := directoryFlag
		if !cmd.Flags().Changed("directory") {
			if resolved, err := common.OutputDir(); err == nil {
				dir = resolved
			}
		}
		return repairDirectory(dir, dryRunFlag)
	},
}

func init() {
	RepairCmd.Flags().StringVarP(&directoryFlag, "directory", "d", "output", "directory containing batch result files to repair")
	RepairCmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "scan and report without writing files")
}

// GetCommand returns the repair command for registration with root.
func GetCommand() *cobra.Command {
	return RepairCmd
}

func repairDirectory(dir string, dryRun bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	checked, fixed, failed := 0, 0, 0

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		checked++
		path := filepath.Join(dir, entry.Name())
		common.Verbose("Checking %s", path)

		repaired, repairErr := repairFileIfNeeded(path, dryRun)
		if repaired {
			if repairErr != nil {
				failed++
			} else {
				fixed++
			}
		}
	}

	common.Info("Repair summary: checked=%d repaired=%d failed=%d", checked, fixed, failed)
	if failed > 0 {
		return fmt.Errorf("failed to repair %d file(s)", failed)
	}
	return nil
}

// repairFileIfNeeded checks a single record and regenerates it if its
// results are empty. A record that fails to parse also needs repair,
// but it carries no readable file references, so outside a dry run it
// is returned as a failure.
func repairFileIfNeeded(path string, dryRun bool) (bool, error) {
	rec, err := batch.Load(path)
	if err == nil && len(rec.Results) > 0 {
		return false, nil
	}

	common.Warning("%s failed to load or had no results (scheduling regenerate): %v", path, err)

	if dryRun {
		common.Info("Would regenerate %s", path)
		return true, nil
	}

	if rec.EnvironmentFile == "" || rec.AuxiliaryFile == "" {
		return true, fmt.Errorf("%s: missing environment/auxiliary file references, cannot regenerate", path)
	}

	newRec, err := regenerate(rec)
	if err != nil {
		common.Error("Failed to regenerate %s: %v", path, err)
		return true, err
	}

	if err := batch.Save(path, newRec); err != nil {
		common.Error("Failed to write regenerated record %s: %v", path, err)
		return true, err
	}

	common.Info("Repaired %s", path)
	return true, nil
}

func regenerate(rec batch.Record) (batch.Record, error) {
	f, err := os.Open(common.ResolveEnvironmentPath(rec.EnvironmentFile))
	if err != nil {
		return batch.Record{}, fmt.Errorf("opening environment file: %w", err)
	}
	defer f.Close()

	mode := environment.WallsAndExits
	if !rec.Config.RandomPlacement {
		mode = environment.WallsExitsAndPedestrians
	}
	env, err := environment.Parse(f, mode)
	if err != nil {
		return batch.Record{}, fmt.Errorf("parsing environment: %w", err)
	}

	af, err := os.Open(common.ResolveAuxiliaryPath(rec.AuxiliaryFile))
	if err != nil {
		return batch.Record{}, fmt.Errorf("opening auxiliary file: %w", err)
	}
	defer af.Close()
	exitBatches, err := environment.ParseExitBatches(af)
	if err != nil {
		return batch.Record{}, fmt.Errorf("parsing auxiliary file: %w", err)
	}

	results, err := batch.RunBatch(context.Background(), env, exitBatches, rec.Config)
	if err != nil {
		return batch.Record{}, fmt.Errorf("rerunning batch: %w", err)
	}

	return batch.Record{
		EnvironmentFile: rec.EnvironmentFile,
		AuxiliaryFile:   rec.AuxiliaryFile,
		Config:          rec.Config,
		Results:         results,
		GeneratedAt:     rec.GeneratedAt,
	}, nil
}
