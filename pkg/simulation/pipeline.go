// Package simulation implements the per-tick movement pipeline that
// advances a pedestrian population through a combined floor field.
package simulation

import (
	"math"
	"math/rand"

	"evacsim/pkg/grid"
	"evacsim/pkg/pedestrian"
)

// Config controls the optional behavioral toggles of the tick pipeline.
type Config struct {
	// PanicProbability is the per-tick, per-pedestrian chance of freezing in place.
	PanicProbability float64 `json:"panic_probability"`
	// AlwaysSmallest selects the globally-smallest neighbor cell even if
	// occupied (causing the move to fail this tick), matching the
	// "always smallest" policy. When false, occupied cells are excluded
	// from candidate selection up front.
	AlwaysSmallest bool `json:"always_smallest"`
	// LingerAtExit keeps a pedestrian in the environment for one extra
	// tick after reaching an exit cell before it departs.
	LingerAtExit bool `json:"linger_at_exit"`
	// AvoidCornerMoves, when true (the CLI default), forbids diagonal steps
	// that cut across a wall corner. When false, diagonal moves ignore
	// the corner check entirely.
	AvoidCornerMoves bool `json:"avoid_corner_moves"`
	// AllowXMoves, when true, permits pedestrians to cross paths in an
	// X: the X-swap resolution stage is skipped entirely. When false
	// (the default), crossings are detected and one side is stopped.
	AllowXMoves bool `json:"allow_x_moves"`
}

// Panic randomly stops a fraction of still-moving pedestrians, governed
// by cfg.PanicProbability. Returns the number of pedestrians that
// entered panic this tick.
func Panic(pop *pedestrian.Population, cfg Config, rng *rand.Rand) int {
	count := 0
	for _, p := range pop.People {
		if p.State != pedestrian.Moving {
			continue
		}
		if rng.Float64() < cfg.PanicProbability {
			p.State = pedestrian.Stopped
			count++
		}
	}
	return count
}

// DetermineMove chooses, for every still-moving pedestrian, the
// destination cell it intends to step into this tick. A pedestrian with
// no admissible neighbor becomes Stopped.
func DetermineMove(pop *pedestrian.Population, combined grid.FloatGrid, cfg Config, rng *rand.Rand) {
	for _, p := range pop.People {
		if p.State != pedestrian.Moving {
			continue
		}

		dest, ok := selectDestination(p.Pos, combined, pop.Occupancy, cfg, rng)
		if !ok {
			p.State = pedestrian.Stopped
			continue
		}
		p.Intent = dest
	}
}

type neighborCandidate struct {
	pt  grid.Point
	val float64
}

func selectDestination(pos grid.Point, combined grid.FloatGrid, occ grid.IntGrid, cfg Config, rng *rand.Rand) (grid.Point, bool) {
	rows, cols := combined.Dims()

	var candidates []neighborCandidate
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := pos.Row+dr, pos.Col+dc
			if !grid.InBounds(rows, cols, nr, nc) {
				continue
			}
			if combined[nr][nc] == grid.WallValue {
				continue
			}
			if !cfg.AlwaysSmallest && occ[nr][nc] != 0 {
				continue
			}
			if dr != 0 && dc != 0 && cfg.AvoidCornerMoves && !grid.DiagValid(combined, pos.Row, pos.Col, dr, dc) {
				continue
			}

			candidates = append(candidates, neighborCandidate{grid.Point{Row: nr, Col: nc}, combined[nr][nc]})
		}
	}

	if len(candidates) == 0 {
		return grid.Point{}, false
	}

	minVal := candidates[0].val
	for _, c := range candidates {
		if c.val < minVal {
			minVal = c.val
		}
	}

	var tied []grid.Point
	for _, c := range candidates {
		if c.val == minVal {
			tied = append(tied, c.pt)
		}
	}

	chosen := tied[rng.Intn(len(tied))]
	if cfg.AlwaysSmallest && occ[chosen.Row][chosen.Col] != 0 {
		return grid.Point{}, false
	}

	return chosen, true
}

// ResolveXMoves scans adjacent pairs of moving pedestrians and cancels
// one side of any detected X-crossing (two pedestrians swapping
// positions by crossing paths diagonally).
func ResolveXMoves(pop *pedestrian.Population, rng *rand.Rand) {
	rows, cols := pop.Occupancy.Dims()
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			currentID := pop.Occupancy[r][c]
			if currentID <= 0 {
				continue
			}
			current := pop.People[currentID-1]
			if current.State != pedestrian.Moving {
				continue
			}

			if adjID := pop.Occupancy[r][c+1]; adjID > 0 {
				resolveXMove(current, pop.People[adjID-1], rng)
			}
			for dc := -1; dc <= 1; dc++ {
				if adjID := pop.Occupancy[r+1][c+dc]; adjID > 0 {
					resolveXMove(current, pop.People[adjID-1], rng)
				}
			}
		}
	}
}

func resolveXMove(a, b *pedestrian.Pedestrian, rng *rand.Rand) {
	if a.State != pedestrian.Moving || b.State != pedestrian.Moving {
		return
	}
	if a.Intent.Col == a.Pos.Col || b.Intent.Col == b.Pos.Col {
		return
	}
	if a.Intent.Row == a.Pos.Row || b.Intent.Row == b.Pos.Row {
		return
	}

	// Direct swap: the two pedestrians trade cells outright along the same
	// diagonal line. Their paths coincide rather than cross at a single
	// point, so the slope-intersection test below can't see it.
	if a.Intent == b.Pos && b.Intent == a.Pos {
		stopOneSide(a, b, rng)
		return
	}

	m1 := float64(a.Intent.Row-a.Pos.Row) / float64(a.Intent.Col-a.Pos.Col)
	n1 := float64(a.Pos.Row) - m1*float64(a.Pos.Col)

	m2 := float64(b.Intent.Row-b.Pos.Row) / float64(b.Intent.Col-b.Pos.Col)
	n2 := float64(b.Pos.Row) - m2*float64(b.Pos.Col)

	if m1 == m2 {
		return
	}

	x := (n2 - n1) / (m1 - m2)
	y := m1*x + n1

	loCol, hiCol := minMax(float64(a.Pos.Col), float64(a.Intent.Col))
	loRow, hiRow := minMax(float64(a.Pos.Row), float64(a.Intent.Row))

	if x > loCol && x < hiCol && y > loRow && y < hiRow {
		stopOneSide(a, b, rng)
	}
}

func stopOneSide(a, b *pedestrian.Pedestrian, rng *rand.Rand) {
	if rng.Intn(100) < 50 {
		b.State = pedestrian.Stopped
	} else {
		a.State = pedestrian.Stopped
	}
}

func minMax(a, b float64) (float64, float64) {
	return math.Min(a, b), math.Max(a, b)
}

// conflictGroup is the set of pedestrians competing for the same target cell.
type conflictGroup struct {
	members []int // pedestrian IDs
}

// ResolveTargetConflicts picks one winner among every group of moving
// pedestrians that share the same intended destination cell; every
// other member of the group is stopped. Returns the number of conflicts
// resolved.
func ResolveTargetConflicts(pop *pedestrian.Population, rng *rand.Rand) int {
	rows, cols := pop.Occupancy.Dims()
	claims := grid.NewIntGrid(rows, cols)
	var groups []conflictGroup

	for _, p := range pop.People {
		if p.State != pedestrian.Moving {
			continue
		}

		content := claims[p.Intent.Row][p.Intent.Col]
		switch {
		case content > 0:
			groups = append(groups, conflictGroup{members: []int{content, p.ID}})
			claims[p.Intent.Row][p.Intent.Col] = -len(groups)
		case content < 0:
			idx := -content - 1
			groups[idx].members = append(groups[idx].members, p.ID)
		default:
			claims[p.Intent.Row][p.Intent.Col] = p.ID
		}
	}

	for _, g := range groups {
		winner := g.members[rng.Intn(len(g.members))]
		for _, id := range g.members {
			if id != winner {
				pop.People[id-1].State = pedestrian.Stopped
			}
		}
	}

	return len(groups)
}

// Commit moves every still-moving pedestrian into its chosen cell and
// transitions pedestrians that reached an exit.
func Commit(pop *pedestrian.Population, combined grid.FloatGrid, cfg Config) {
	for _, p := range pop.People {
		switch p.State {
		case pedestrian.Moving:
			p.Pos = p.Intent
			if combined[p.Pos.Row][p.Pos.Col] == grid.ExitValue {
				if cfg.LingerAtExit {
					p.State = pedestrian.Leaving
				} else {
					p.State = pedestrian.Left
					// RefreshGrid never sees a Left pedestrian, so the
					// exit step is counted here. A Leaving pedestrian is
					// still present at refresh time and needs no extra
					// count.
					pop.HeatMap[p.Pos.Row][p.Pos.Col]++
				}
			}
		case pedestrian.Leaving:
			p.State = pedestrian.Left
		}
	}
}

// RefreshGrid rebuilds the occupancy grid from current pedestrian
// positions and accumulates the heat map for every pedestrian still
// present.
func RefreshGrid(pop *pedestrian.Population) {
	pop.Occupancy.Reset()
	for _, p := range pop.People {
		if p.State == pedestrian.Left {
			continue
		}
		pop.Occupancy[p.Pos.Row][p.Pos.Col] = p.ID
		pop.HeatMap[p.Pos.Row][p.Pos.Col]++
	}
}

// ResetStates returns every Stopped pedestrian to Moving for the next tick.
func ResetStates(pop *pedestrian.Population) {
	for _, p := range pop.People {
		if p.State != pedestrian.Left && p.State != pedestrian.Leaving {
			p.State = pedestrian.Moving
		}
	}
}

// Tick advances the population by exactly one timestep, running the
// full movement pipeline in its canonical order: panic, intent
// selection, X-swap resolution, target-conflict resolution, commit,
// grid refresh, and state reset.
func Tick(pop *pedestrian.Population, combined grid.FloatGrid, cfg Config, rng *rand.Rand) {
	Panic(pop, cfg, rng)
	DetermineMove(pop, combined, cfg, rng)
	if !cfg.AllowXMoves {
		ResolveXMoves(pop, rng)
	}
	ResolveTargetConflicts(pop, rng)
	Commit(pop, combined, cfg)
	RefreshGrid(pop)
	ResetStates(pop)
}

// Run advances pop tick by tick until every pedestrian has left the
// environment, or maxTicks is reached (a safety bound against
// pathological configurations where evacuation cannot complete).
// Returns the number of ticks executed.
func Run(pop *pedestrian.Population, combined grid.FloatGrid, cfg Config, rng *rand.Rand, maxTicks int) int {
	return RunTrace(pop, combined, cfg, rng, maxTicks, nil)
}

// RunTrace advances pop like Run, additionally invoking observe between
// ticks: once with tick 0 for the initial placement, then after every
// completed tick's grid refresh. Between ticks is the only point where
// rendering or other I/O is safe; nothing suspends inside a tick.
func RunTrace(pop *pedestrian.Population, combined grid.FloatGrid, cfg Config, rng *rand.Rand, maxTicks int, observe func(tick int)) int {
	if observe != nil {
		observe(0)
	}
	ticks := 0
	for !pop.AllLeft() && ticks < maxTicks {
		Tick(pop, combined, cfg, rng)
		ticks++
		if observe != nil {
			observe(ticks)
		}
	}
	return ticks
}
