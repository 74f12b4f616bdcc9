package environment

import (
	"errors"
	"fmt"

	"evacsim/pkg/grid"
)

// ErrInaccessibleExit is returned when an exit has no reachable adjacent
// floor cell and therefore cannot be used in a simulation.
var ErrInaccessibleExit = errors.New("exit is inaccessible")

// fieldRule is the per-neighbor cost added while relaxing a floor field:
// orthogonal neighbors cost 1, diagonal neighbors cost 1.5.
var fieldRule = [3][3]float64{
	{1.5, 1.0, 1.5},
	{1.0, 0.0, 1.0},
	{1.5, 1.0, 1.5},
}

// Exit is a set of one or more adjacent cells sharing a single floor
// field, grown outward from the base environment by relaxation.
type Exit struct {
	Cells []grid.Point
	Field grid.FloatGrid
}

// NewExit creates a single-cell exit at the given coordinates.
func NewExit(p grid.Point) *Exit {
	return &Exit{Cells: []grid.Point{p}}
}

// Expand adds another cell to the exit.
func (e *Exit) Expand(p grid.Point) {
	e.Cells = append(e.Cells, p)
}

// ExitSet is the collection of exits active in one simulation batch,
// together with their merged floor field.
type ExitSet struct {
	Exits         []*Exit
	CombinedField grid.FloatGrid
}

// AddExit appends a new exit to the set.
func (s *ExitSet) AddExit(p grid.Point) *Exit {
	e := NewExit(p)
	s.Exits = append(s.Exits, e)
	return e
}

// BuildField computes the exit's floor field over env: the exit cells
// start at ExitValue, walls stay at WallValue, and every other reachable
// cell is relaxed to the shortest weighted-Moore-neighborhood distance
// from the exit, honoring the diagonal-corner rule.
//
// Returns ErrInaccessibleExit if no cell adjacent to the exit (in the
// four orthogonal directions) is open floor.
func (e *Exit) BuildField(env *Environment) error {
	e.Field = env.WallGrid()
	for _, c := range e.Cells {
		e.Field[c.Row][c.Col] = grid.ExitValue
	}

	if !e.accessible(env) {
		return ErrInaccessibleExit
	}

	rows, cols := env.Rows, env.Cols
	next := grid.NewFloatGrid(rows, cols)
	grid.CopyFloatGrid(next, e.Field)

	for {
		changed := false
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				current := e.Field[r][c]
				if current == grid.WallValue || current == 0.0 {
					continue
				}

				for dr := -1; dr <= 1; dr++ {
					nr := r + dr
					if nr < 0 || nr >= rows {
						continue
					}
					for dc := -1; dc <= 1; dc++ {
						nc := c + dc
						if nc < 0 || nc >= cols {
							continue
						}
						if e.Field[nr][nc] == grid.WallValue || e.Field[nr][nc] == grid.ExitValue {
							continue
						}
						if dr != 0 && dc != 0 && !grid.DiagValid(e.Field, r, c, dr, dc) {
							continue
						}

						candidate := current + fieldRule[1+dr][1+dc]
						if next[nr][nc] == 0.0 {
							next[nr][nc] = candidate
							changed = true
						} else if candidate < next[nr][nc] {
							next[nr][nc] = candidate
							changed = true
						}
					}
				}
			}
		}
		grid.CopyFloatGrid(e.Field, next)
		if !changed {
			break
		}
	}

	return nil
}

// accessible reports whether any exit cell has an orthogonal neighbor
// that is open floor (not a wall and not another exit cell).
func (e *Exit) accessible(env *Environment) bool {
	rows, cols := env.Rows, env.Cols
	for _, c := range e.Cells {
		for dr := -1; dr <= 1; dr++ {
			nr := c.Row + dr
			if nr < 0 || nr >= rows {
				continue
			}
			for dc := -1; dc <= 1; dc++ {
				if dr != 0 && dc != 0 {
					continue // diagonals don't count for accessibility
				}
				nc := c.Col + dc
				if nc < 0 || nc >= cols {
					continue
				}
				if e.Field[nr][nc] == grid.WallValue || e.Field[nr][nc] == grid.ExitValue {
					continue
				}
				return true
			}
		}
	}
	return false
}

// Combine merges every exit's floor field into s.CombinedField by taking
// the pointwise minimum, so each cell's value becomes the distance to
// whichever exit is closest.
func (s *ExitSet) Combine() error {
	if len(s.Exits) == 0 {
		return fmt.Errorf("exit set has no exits")
	}

	rows, cols := s.Exits[0].Field.Dims()
	s.CombinedField = grid.NewFloatGrid(rows, cols)
	grid.CopyFloatGrid(s.CombinedField, s.Exits[0].Field)

	for _, e := range s.Exits[1:] {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if e.Field[r][c] < s.CombinedField[r][c] {
					s.CombinedField[r][c] = e.Field[r][c]
				}
			}
		}
	}

	return nil
}
