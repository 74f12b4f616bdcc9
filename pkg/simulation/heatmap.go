package simulation

import "evacsim/pkg/grid"

// HeatMap counts, per cell, how many pedestrian-ticks were spent there
// across one or more simulations.
type HeatMap grid.IntGrid

// NewHeatMap allocates a zeroed heat map.
func NewHeatMap(rows, cols int) HeatMap {
	return HeatMap(grid.NewIntGrid(rows, cols))
}

// Merge adds other's counts into h in place. Merge is commutative, so
// heat maps from independently-run simulations can be combined in any
// order.
func (h HeatMap) Merge(other HeatMap) {
	for r := range other {
		for c := range other[r] {
			h[r][c] += other[r][c]
		}
	}
}

// Mean divides every cell by numSimulations, producing the
// per-simulation average occupancy.
func (h HeatMap) Mean(numSimulations int) grid.FloatGrid {
	rows := len(h)
	var cols int
	if rows > 0 {
		cols = len(h[0])
	}
	out := grid.NewFloatGrid(rows, cols)
	if numSimulations <= 0 {
		return out
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r][c] = float64(h[r][c]) / float64(numSimulations)
		}
	}
	return out
}
