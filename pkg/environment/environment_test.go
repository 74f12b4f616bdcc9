package environment

import (
	"strings"
	"testing"

	"evacsim/pkg/grid"
)

const s1Env = "3 3\n#_#\n#.#\n###\n"

func parseEnv(t *testing.T, text string, mode LoadMode) *Environment {
	t.Helper()
	env, err := Parse(strings.NewReader(text), mode)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return env
}

func TestParseWallsAndExits(t *testing.T) {
	env := parseEnv(t, s1Env, WallsAndExits)

	if env.Rows != 3 || env.Cols != 3 {
		t.Fatalf("expected 3x3, got %dx%d", env.Rows, env.Cols)
	}
	if env.Cells[0][1] != ExitMarker {
		t.Fatalf("expected (0,1) to be an exit marker, got %v", env.Cells[0][1])
	}
	if len(env.ExitCells) != 1 || env.ExitCells[0] != (grid.Point{Row: 0, Col: 1}) {
		t.Fatalf("expected one exit cell at (0,1), got %v", env.ExitCells)
	}
	if env.Cells[1][1] != Empty {
		t.Fatalf("expected (1,1) to be empty floor")
	}
}

func TestParseWallsOnlyFoldsExitsIntoWalls(t *testing.T) {
	env := parseEnv(t, s1Env, WallsOnly)
	if env.Cells[0][1] != Wall {
		t.Fatalf("expected '_' to fold into Wall under WallsOnly, got %v", env.Cells[0][1])
	}
	if len(env.ExitCells) != 0 {
		t.Fatalf("expected no exit cells recorded under WallsOnly, got %v", env.ExitCells)
	}
}

func TestParsePedestrianMarkers(t *testing.T) {
	text := "3 3\n###\n#p#\n###\n"
	env := parseEnv(t, text, WallsExitsAndPedestrians)
	if len(env.PedestrianCells) != 1 || env.PedestrianCells[0] != (grid.Point{Row: 1, Col: 1}) {
		t.Fatalf("expected one pedestrian at (1,1), got %v", env.PedestrianCells)
	}
	if env.Cells[1][1] != Empty {
		t.Fatalf("expected pedestrian cell to be classified Empty")
	}
}

func TestParseRejectsUnknownSymbol(t *testing.T) {
	text := "1 1\nX\n"
	if _, err := Parse(strings.NewReader(text), WallsOnly); err == nil {
		t.Fatalf("expected an error for unknown symbol 'X'")
	}
}

func TestParseRejectsShortRow(t *testing.T) {
	text := "2 3\n##\n###\n"
	if _, err := Parse(strings.NewReader(text), WallsOnly); err == nil {
		t.Fatalf("expected an error for a row with too few columns")
	}
}

func TestParseRejectsMissingRows(t *testing.T) {
	text := "2 3\n###\n"
	if _, err := Parse(strings.NewReader(text), WallsOnly); err == nil {
		t.Fatalf("expected an error when fewer than H rows are present")
	}
}

func TestRectangleBordersAreWalls(t *testing.T) {
	env, err := Rectangle(5, 4)
	if err != nil {
		t.Fatalf("Rectangle: %v", err)
	}
	for c := 0; c < env.Cols; c++ {
		if env.Cells[0][c] != Wall || env.Cells[env.Rows-1][c] != Wall {
			t.Fatalf("expected top/bottom borders to be walls")
		}
	}
	for r := 0; r < env.Rows; r++ {
		if env.Cells[r][0] != Wall || env.Cells[r][env.Cols-1] != Wall {
			t.Fatalf("expected left/right borders to be walls")
		}
	}
	if env.Cells[2][2] != Empty {
		t.Fatalf("expected interior to be empty floor")
	}
}

func TestRectangleRejectsTooSmall(t *testing.T) {
	if _, err := Rectangle(2, 5); err == nil {
		t.Fatalf("expected an error for a rectangle smaller than 3x3")
	}
}

func TestParseExitBatchesWideThenSingleExit(t *testing.T) {
	batches, err := ParseExitBatches(strings.NewReader("0 2 + 0 3 , 6 2 .\n"))
	if err != nil {
		t.Fatalf("ParseExitBatches: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected one batch line, got %d", len(batches))
	}

	exits := batches[0].Exits
	if len(exits) != 2 {
		t.Fatalf("expected two exits, got %d", len(exits))
	}
	if len(exits[0]) != 2 || exits[0][0] != (grid.Point{Row: 0, Col: 2}) || exits[0][1] != (grid.Point{Row: 0, Col: 3}) {
		t.Fatalf("expected first exit to cover (0,2) and (0,3), got %v", exits[0])
	}
	if len(exits[1]) != 1 || exits[1][0] != (grid.Point{Row: 6, Col: 2}) {
		t.Fatalf("expected second exit to be a single cell at (6,2), got %v", exits[1])
	}
}

func TestParseExitBatchesMultipleLines(t *testing.T) {
	batches, err := ParseExitBatches(strings.NewReader("0 0 .\n1 1 .\n"))
	if err != nil {
		t.Fatalf("ParseExitBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected two batch lines, got %d", len(batches))
	}
}

func TestParseExitBatchesFirstCellAlwaysStartsAnExit(t *testing.T) {
	// The first cell on a line always begins a new exit, regardless of
	// its own trailing separator; only a preceding '+' can fold a cell
	// into the exit started before it.
	batches, err := ParseExitBatches(strings.NewReader("0 0 +\n"))
	if err != nil {
		t.Fatalf("ParseExitBatches: %v", err)
	}
	if len(batches) != 1 || len(batches[0].Exits) != 1 || len(batches[0].Exits[0]) != 1 {
		t.Fatalf("expected a single single-cell exit, got %v", batches[0].Exits)
	}
}

func TestParseExitBatchesRejectsUnknownSeparator(t *testing.T) {
	_, err := ParseExitBatches(strings.NewReader("0 0 x\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown separator symbol")
	}
}

func TestParseExitBatchesSkipsBlankLines(t *testing.T) {
	batches, err := ParseExitBatches(strings.NewReader("\n0 0 .\n\n"))
	if err != nil {
		t.Fatalf("ParseExitBatches: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected blank lines to be skipped, got %d batches", len(batches))
	}
}
