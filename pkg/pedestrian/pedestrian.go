// Package pedestrian models individual evacuees and the population that
// moves through a simulation.
package pedestrian

import (
	"fmt"
	"math/rand"

	"evacsim/pkg/environment"
	"evacsim/pkg/grid"
)

// State is a pedestrian's lifecycle stage within one tick.
type State int

const (
	// Moving pedestrians are eligible to select and attempt a move this tick.
	Moving State = iota
	// Stopped pedestrians stay in place this tick (panic, lost conflict, or no move available).
	Stopped
	// Leaving pedestrians reached an exit and linger for one tick before departing.
	Leaving
	// Left pedestrians have departed the environment and take no further part.
	Left
)

func (s State) String() string {
	switch s {
	case Moving:
		return "moving"
	case Stopped:
		return "stopped"
	case Leaving:
		return "leaving"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Pedestrian is one evacuee tracked across the simulation.
type Pedestrian struct {
	ID     int
	Origin grid.Point
	Pos    grid.Point
	Intent grid.Point // target cell chosen this tick; (-1,-1) when no move is pending
	State  State
}

// HasIntent reports whether Intent holds a selected destination for this tick.
func (p *Pedestrian) HasIntent() bool {
	return p.Intent.Row != -1 || p.Intent.Col != -1
}

// ClearIntent resets the pedestrian's move intent to "none".
func (p *Pedestrian) ClearIntent() {
	p.Intent = grid.Point{Row: -1, Col: -1}
}

// Population is the set of pedestrians active in one simulation run,
// together with the occupancy grid derived from their positions.
type Population struct {
	People    []*Pedestrian
	Occupancy grid.IntGrid // 0 = empty, else pedestrian ID
	HeatMap   grid.IntGrid
	nextID    int
}

// NewPopulation allocates an empty population over a rows x cols environment.
func NewPopulation(rows, cols int) *Population {
	return &Population{
		Occupancy: grid.NewIntGrid(rows, cols),
		HeatMap:   grid.NewIntGrid(rows, cols),
	}
}

// Place adds a pedestrian at the given cell. The cell must already be
// known to be free; Place does not check occupancy itself.
func (pop *Population) Place(pos grid.Point) *Pedestrian {
	pop.nextID++
	p := &Pedestrian{
		ID:     pop.nextID,
		Origin: pos,
		Pos:    pos,
		State:  Moving,
	}
	p.ClearIntent()

	pop.Occupancy[pos.Row][pos.Col] = p.ID
	pop.HeatMap[pos.Row][pos.Col]++
	pop.People = append(pop.People, p)

	return p
}

// RandomPlace places count pedestrians at uniformly random interior
// cells, rejecting draws that land on a wall, an exit, or an already
// occupied cell. Placement is capped at a large attempt budget so an
// environment without enough free cells fails with an error instead of
// looping forever.
func (pop *Population) RandomPlace(count int, combined grid.FloatGrid, rng *rand.Rand) error {
	if count <= 0 {
		return fmt.Errorf("pedestrian count must be positive, got %d", count)
	}

	rows, cols := combined.Dims()
	if rows < 3 || cols < 3 {
		return fmt.Errorf("environment too small to place pedestrians")
	}

	placed := 0
	const maxAttempts = 1_000_000
	for attempts := 0; placed < count; attempts++ {
		if attempts >= maxAttempts {
			return fmt.Errorf("could not place %d pedestrians after %d attempts (environment too crowded)", count, maxAttempts)
		}

		r := 1 + rng.Intn(rows-2)
		c := 1 + rng.Intn(cols-2)

		if pop.Occupancy[r][c] != 0 {
			continue
		}
		if combined[r][c] == grid.ExitValue || combined[r][c] == grid.WallValue {
			continue
		}

		pop.Place(grid.Point{Row: r, Col: c})
		placed++
	}

	return nil
}

// PlaceFromEnvironment places one pedestrian at each marker recorded in
// env.PedestrianCells, in the order they were parsed.
func (pop *Population) PlaceFromEnvironment(env *environment.Environment) {
	for _, c := range env.PedestrianCells {
		pop.Place(c)
	}
}

// ResetToOrigin restores every pedestrian to its starting position and
// state, for running a fresh simulation against the same placement.
func (pop *Population) ResetToOrigin() {
	pop.Occupancy.Reset()
	for _, p := range pop.People {
		p.Pos = p.Origin
		p.State = Moving
		p.ClearIntent()
		pop.Occupancy[p.Pos.Row][p.Pos.Col] = p.ID
	}
}

// AllLeft reports whether every pedestrian has departed the environment.
func (pop *Population) AllLeft() bool {
	for _, p := range pop.People {
		if p.State != Left {
			return false
		}
	}
	return true
}
