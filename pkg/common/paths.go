package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Singleton for resolved asset paths
var (
	resolvedEnvironmentsDir string
	resolvedOutputDir       string
	resolvedAuxiliaryDir    string
	pathsOnce               sync.Once
	pathsError              error
)

// RepoMarkerFiles are files that indicate the root of this module.
var RepoMarkerFiles = []string{"go.mod"}

// initPaths resolves directory paths once at startup.
// It looks for the repo root by checking:
// 1. Current working directory
// 2. Parent directories (up to 5 levels)
// Returns error if repo root cannot be found.
func initPaths() {
	pathsOnce.Do(func() {
		repoRoot, err := findRepoRoot()
		if err != nil {
			pathsError = err
			return
		}

		resolvedEnvironmentsDir = filepath.Join(repoRoot, "ambientes")
		resolvedAuxiliaryDir = filepath.Join(repoRoot, "saidas")
		resolvedOutputDir = filepath.Join(repoRoot, "output")

		Verbose("Resolved repo root: %s", repoRoot)
		Verbose("Environments directory: %s", resolvedEnvironmentsDir)
	})
}

// findRepoRoot searches for the repository root by looking for marker files
// starting from the current directory and walking up the directory tree.
func findRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for i := 0; i < 6; i++ {
		if isRepoRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find module root (looked for %v starting from %s)", RepoMarkerFiles, cwd)
}

// isRepoRoot checks if a directory contains repo marker files
func isRepoRoot(dir string) bool {
	for _, marker := range RepoMarkerFiles {
		markerPath := filepath.Join(dir, marker)
		if _, err := os.Stat(markerPath); err == nil {
			return true
		}
	}
	return false
}

// EnvironmentsDir returns the absolute path to the directory holding
// environment drawing files, creating it if it does not yet exist.
func EnvironmentsDir() (string, error) {
	initPaths()
	if pathsError != nil {
		return "", pathsError
	}
	if err := os.MkdirAll(resolvedEnvironmentsDir, 0755); err != nil {
		return "", fmt.Errorf("creating environments directory: %w", err)
	}
	return resolvedEnvironmentsDir, nil
}

// AuxiliaryDir returns the absolute path to the directory holding exit
// batch auxiliary files, creating it if it does not yet exist.
func AuxiliaryDir() (string, error) {
	initPaths()
	if pathsError != nil {
		return "", pathsError
	}
	if err := os.MkdirAll(resolvedAuxiliaryDir, 0755); err != nil {
		return "", fmt.Errorf("creating auxiliary directory: %w", err)
	}
	return resolvedAuxiliaryDir, nil
}

// OutputDir returns the absolute path to the directory where rendered
// and batch output is written, creating it if it does not yet exist.
func OutputDir() (string, error) {
	initPaths()
	if pathsError != nil {
		return "", pathsError
	}
	if err := os.MkdirAll(resolvedOutputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return resolvedOutputDir, nil
}

// MustOutputDir returns the output directory path or panics if it
// cannot be resolved. Use sparingly - prefer OutputDir() with proper
// error handling.
func MustOutputDir() string {
	dir, err := OutputDir()
	if err != nil {
		panic(fmt.Sprintf("failed to resolve output directory: %v", err))
	}
	return dir
}

// ResolveOutputPath joins a bare file name with OutputDir, so commands
// can accept either a bare name ("room1-batch.json") or a path that
// already contains a directory separator, which is returned unchanged.
// Falls back to name itself if the output directory cannot be resolved.
func ResolveOutputPath(name string) string {
	return resolveUnder(OutputDir, name)
}

// ResolveEnvironmentPath joins a bare file name with EnvironmentsDir,
// leaving any name that already contains a directory separator
// unchanged. Falls back to name itself if the directory cannot be
// resolved.
func ResolveEnvironmentPath(name string) string {
	return resolveUnder(EnvironmentsDir, name)
}

// ResolveAuxiliaryPath joins a bare file name with AuxiliaryDir,
// leaving any name that already contains a directory separator
// unchanged. Falls back to name itself if the directory cannot be
// resolved.
func ResolveAuxiliaryPath(name string) string {
	return resolveUnder(AuxiliaryDir, name)
}

func resolveUnder(dirFn func() (string, error), name string) string {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	dir, err := dirFn()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// ResetPaths resets the cached paths (useful for testing)
func ResetPaths() {
	resolvedEnvironmentsDir = ""
	resolvedAuxiliaryDir = ""
	resolvedOutputDir = ""
	pathsOnce = sync.Once{}
	pathsError = nil
}
