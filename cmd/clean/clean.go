// Package clean implements the clean command, which removes generated
// output files.
package clean

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"evacsim/pkg/common"
)

var outputDirFlag string

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated output files",
	Long: `Remove every file directly inside the output directory.
Subdirectories and their contents are left in place.

This is a destructive operation. Use with caution.

Examples:
  evacsim clean
  evacsim clean --output-dir output --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := outputDirFlag
		if !cmd.Flags().Changed("output-dir") {
			if resolved, err := common.OutputDir(); err == nil {
				dir = resolved
			}
		}
		common.Info("Cleaning %s...", dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				common.Info("Nothing to clean: %s does not exist", dir)
				return nil
			}
			return fmt.Errorf("reading output directory: %w", err)
		}

		removed := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				common.Warning("failed to remove %s: %v", path, err)
				continue
			}
			common.Verbose("removed %s", path)
			removed++
		}

		common.Info("Removed %d file(s) from %s", removed, dir)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&outputDirFlag, "output-dir", "output", "directory of generated output to remove")
}

// GetCommand returns the clean command for registration with root.
func GetCommand() *cobra.Command {
	return cleanCmd
}
