package environment

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"evacsim/pkg/grid"
)

// CellKind classifies a cell in the raw environment drawing, before any
// exit set has been combined into a floor field.
type CellKind int

const (
	// Empty is a walkable cell with no special meaning.
	Empty CellKind = iota
	// Wall is an impassable cell.
	Wall
	// ExitMarker is a cell that was drawn as an exit ('_').
	ExitMarker
	// PedestrianMarker is a cell that was drawn with a starting pedestrian ('p'/'P').
	PedestrianMarker
)

// LoadMode controls which symbols carry meaning while parsing an
// environment drawing.
type LoadMode int

const (
	// WallsOnly treats '_' and 'p'/'P' as plain floor.
	WallsOnly LoadMode = iota
	// WallsAndExits additionally registers '_' cells as exits.
	WallsAndExits
	// WallsExitsAndPedestrians additionally places pedestrians at 'p'/'P' cells.
	WallsExitsAndPedestrians
)

// Environment is the parsed static layout: its dimensions and a
// wall/floor classification independent of any particular exit set.
type Environment struct {
	Rows, Cols int
	Cells      [][]CellKind
	// ExitCells accumulates exit coordinates found while parsing, in the
	// order encountered, for the caller to turn into Exit structures.
	ExitCells []grid.Point
	// PedestrianCells accumulates starting pedestrian coordinates found
	// while parsing.
	PedestrianCells []grid.Point
}

// WallGrid returns a FloatGrid with WallValue on wall and exit-marker
// cells and 0 elsewhere, the base every exit's floor field is
// initialized from.
func (e *Environment) WallGrid() grid.FloatGrid {
	g := grid.NewFloatGrid(e.Rows, e.Cols)
	for r := 0; r < e.Rows; r++ {
		for c := 0; c < e.Cols; c++ {
			if e.Cells[r][c] == Wall || e.Cells[r][c] == ExitMarker {
				g[r][c] = grid.WallValue
			}
		}
	}
	return g
}

// Parse reads an environment drawing from r.
//
// The format is a header line "ROWS COLS" followed by exactly ROWS lines
// of exactly COLS characters drawn from the alphabet:
//
//	#  wall
//	_  exit (treated as a wall in the skeleton grid; registered separately)
//	.  empty floor
//	p/P  pedestrian starting position
//
// mode controls which of '_' and 'p'/'P' are given their special meaning
// versus being folded into plain floor/wall.
func Parse(r io.Reader, mode LoadMode) (*Environment, error) {
	br := bufio.NewReader(r)

	var rows, cols int
	if _, err := fmt.Fscanf(br, "%d %d\n", &rows, &cols); err != nil {
		return nil, fmt.Errorf("reading environment dimensions: %w", err)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid environment dimensions %dx%d", rows, cols)
	}

	env := &Environment{
		Rows:  rows,
		Cols:  cols,
		Cells: make([][]CellKind, rows),
	}
	for r := range env.Cells {
		env.Cells[r] = make([]CellKind, cols)
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 0; line < rows; line++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("line %d: missing row (expected %d rows)", line, rows)
		}
		text := scanner.Text()
		runes := []rune(text)
		if len(runes) != cols {
			return nil, fmt.Errorf("line %d: has %d columns, expected %d", line, len(runes), cols)
		}

		for col, ch := range runes {
			switch ch {
			case '#':
				env.Cells[line][col] = Wall
			case '_':
				if mode == WallsAndExits || mode == WallsExitsAndPedestrians {
					env.ExitCells = append(env.ExitCells, grid.Point{Row: line, Col: col})
					env.Cells[line][col] = ExitMarker
				} else {
					env.Cells[line][col] = Wall
				}
			case '.':
				env.Cells[line][col] = Empty
			case 'p', 'P':
				if mode == WallsExitsAndPedestrians {
					env.PedestrianCells = append(env.PedestrianCells, grid.Point{Row: line, Col: col})
					env.Cells[line][col] = Empty
				} else {
					env.Cells[line][col] = Empty
				}
			default:
				return nil, fmt.Errorf("line %d: unknown environment symbol %q", line, ch)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	return env, nil
}

// Rectangle builds a rows x cols environment bordered entirely by walls,
// with an open floor in the interior.
func Rectangle(rows, cols int) (*Environment, error) {
	if rows < 3 || cols < 3 {
		return nil, fmt.Errorf("rectangle environment needs at least 3x3, got %dx%d", rows, cols)
	}

	env := &Environment{Rows: rows, Cols: cols, Cells: make([][]CellKind, rows)}
	for r := 0; r < rows; r++ {
		env.Cells[r] = make([]CellKind, cols)
		for c := 0; c < cols; c++ {
			if r == 0 || r == rows-1 || c == 0 || c == cols-1 {
				env.Cells[r][c] = Wall
			} else {
				env.Cells[r][c] = Empty
			}
		}
	}
	return env, nil
}

// ExitBatch is one line of the auxiliary exit-batch file: the set of
// exits to place for a single simulation batch.
type ExitBatch struct {
	Exits [][]grid.Point
}

// ParseExitBatches reads the auxiliary file: one line per batch, each
// line a sequence of "ROW COL SEP" triples where SEP says what happens
// to the next cell (the first cell on a line always starts a new exit):
//
//	,  the next cell starts a new exit
//	+  the next cell joins this cell's exit
//	.  this is the last triple on the line
func ParseExitBatches(r io.Reader) ([]ExitBatch, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var batches []ExitBatch
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		batch, err := parseExitBatchLine(line)
		if err != nil {
			return nil, fmt.Errorf("auxiliary file line %d: %w", lineNum, err)
		}
		batches = append(batches, batch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading auxiliary file: %w", err)
	}

	return batches, nil
}

// parseExitBatchLine reads one line's triples in order, deciding whether
// each cell starts a new exit or expands the previous one from the
// *preceding* triple's separator (the first cell always starts a new
// exit). A triple's own separator then says what happens to the
// following cell: '+' keeps the exit open for it, ',' starts a fresh
// exit with it, and '.' ends the line.
func parseExitBatchLine(line string) (ExitBatch, error) {
	fields := strings.Fields(line)
	if len(fields)%3 != 0 {
		return ExitBatch{}, fmt.Errorf("malformed triples in %q", line)
	}

	var batch ExitBatch
	startsNew := true
	for i := 0; i < len(fields); i += 3 {
		var row, col int
		if _, err := fmt.Sscanf(fields[i], "%d", &row); err != nil {
			return ExitBatch{}, fmt.Errorf("bad row %q", fields[i])
		}
		if _, err := fmt.Sscanf(fields[i+1], "%d", &col); err != nil {
			return ExitBatch{}, fmt.Errorf("bad column %q", fields[i+1])
		}
		sep := fields[i+2]

		pt := grid.Point{Row: row, Col: col}
		if startsNew {
			batch.Exits = append(batch.Exits, []grid.Point{pt})
		} else {
			last := len(batch.Exits) - 1
			batch.Exits[last] = append(batch.Exits[last], pt)
		}

		switch sep {
		case "+":
			startsNew = false
		case ",":
			startsNew = true
		case ".":
			return batch, nil
		default:
			return ExitBatch{}, fmt.Errorf("unknown separator %q", sep)
		}
	}

	return batch, nil
}
