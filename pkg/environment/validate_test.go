package environment

import (
	"testing"

	"evacsim/pkg/grid"
)

func TestValidateTooSmall(t *testing.T) {
	env := &Environment{Rows: 2, Cols: 2, Cells: [][]CellKind{{Empty, Empty}, {Empty, Empty}}}
	issues := Validate(env)
	if len(issues) != 1 {
		t.Fatalf("expected exactly one issue for an undersized environment, got %v", issues)
	}
}

func TestValidateDetectsBorderBreach(t *testing.T) {
	env := parseEnv(t, "3 3\n#.#\n#.#\n###\n", WallsOnly)
	issues := Validate(env)
	if len(issues) == 0 {
		t.Fatalf("expected a breach reported for an open top border cell")
	}
}

func TestValidateFullyEnclosedHasNoIssues(t *testing.T) {
	env := parseEnv(t, s1Env, WallsAndExits)
	// s1Env's top border includes an exit marker, which counts as
	// non-empty and therefore does not breach the border.
	issues := Validate(env)
	if len(issues) != 0 {
		t.Fatalf("expected no issues for a fully-enclosed environment, got %v", issues)
	}
}

func TestValidateExitBatchFlagsInaccessibleExit(t *testing.T) {
	env := parseEnv(t, "3 3\n###\n#_#\n###\n", WallsAndExits)
	eb := ExitBatch{Exits: [][]grid.Point{{{Row: 1, Col: 1}}}}

	issues := ValidateExitBatch(env, eb)
	if len(issues) != 1 {
		t.Fatalf("expected one issue for a boxed-in exit, got %v", issues)
	}
}

func TestValidateExitBatchAcceptsAccessibleExit(t *testing.T) {
	env := parseEnv(t, s1Env, WallsAndExits)
	eb := ExitBatch{Exits: [][]grid.Point{{{Row: 0, Col: 1}}}}

	issues := ValidateExitBatch(env, eb)
	if len(issues) != 0 {
		t.Fatalf("expected no issues for an accessible exit, got %v", issues)
	}
}

func TestValidateExitBatchFlagsOutOfBoundsCell(t *testing.T) {
	env := parseEnv(t, s1Env, WallsAndExits)
	eb := ExitBatch{Exits: [][]grid.Point{{{Row: 10, Col: 10}}}}

	issues := ValidateExitBatch(env, eb)
	if len(issues) == 0 {
		t.Fatalf("expected an out-of-bounds issue to be reported")
	}
}
