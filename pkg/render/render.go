// Package render formats simulation state as text: a per-tick grid
// trace, step-count summaries, and heat-map output.
package render

import (
	"fmt"
	"io"
	"time"

	"evacsim/pkg/environment"
	"evacsim/pkg/grid"
	"evacsim/pkg/pedestrian"
)

// Glyphs used when tracing a grid of pedestrians over an environment.
const (
	GlyphPedestrian = "\U0001F464" // 👤
	GlyphExit       = "\U0001F6AA" // 🚪
	GlyphWall       = "\U0001F9F1" // 🧱
	GlyphEmpty      = "\u2B1B"     // ⬛
)

// GridTrace writes one visual frame of the environment, showing walls,
// exits, and current pedestrian positions.
func GridTrace(w io.Writer, env *environment.Environment, combined grid.FloatGrid, pop *pedestrian.Population) {
	for r := 0; r < env.Rows; r++ {
		for c := 0; c < env.Cols; c++ {
			switch {
			case pop.Occupancy[r][c] != 0:
				fmt.Fprint(w, GlyphPedestrian)
			case combined[r][c] == grid.ExitValue:
				fmt.Fprint(w, GlyphExit)
			case combined[r][c] == grid.WallValue:
				fmt.Fprint(w, GlyphWall)
			default:
				fmt.Fprint(w, GlyphEmpty)
			}
		}
		fmt.Fprintln(w)
	}
}

// FloorField writes the exit set's combined floor field as a matrix,
// printing walls as an integer sentinel and every other cell with one
// decimal place.
func FloorField(w io.Writer, combined grid.FloatGrid) {
	for _, row := range combined {
		for _, v := range row {
			if v == grid.WallValue {
				fmt.Fprintf(w, "%4d ", int(v))
			} else {
				fmt.Fprintf(w, "%4.1f ", v)
			}
		}
		fmt.Fprintln(w)
	}
}

// StepCounts writes one line per simulation with its completion tick
// count, or -1 for an exit set that was skipped as inaccessible.
func StepCounts(w io.Writer, steps []int) {
	for _, s := range steps {
		fmt.Fprintln(w, s)
	}
}

// HeatMap writes a grid of mean per-cell occupancy, as produced by
// simulation.HeatMap.Mean. If combined is non-nil, wall cells are
// printed as a "----" placeholder instead of their (always-zero) mean.
func HeatMap(w io.Writer, mean grid.FloatGrid, combined grid.FloatGrid) {
	for r, row := range mean {
		for c, v := range row {
			if combined != nil && combined[r][c] == grid.WallValue {
				fmt.Fprint(w, "  ---- ")
			} else {
				fmt.Fprintf(w, "%7.2f ", v)
			}
		}
		fmt.Fprintln(w)
	}
}

// ExitSetHeader writes a one-line description of an exit batch using
// the same ","/"+" separator convention the auxiliary file format uses.
func ExitSetHeader(w io.Writer, index int, eb environment.ExitBatch) {
	fmt.Fprintf(w, "Exit set %d: ", index)
	for i, exit := range eb.Exits {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		for j, c := range exit {
			if j > 0 {
				fmt.Fprint(w, "+")
			}
			fmt.Fprintf(w, "(%d,%d)", c.Row, c.Col)
		}
	}
	fmt.Fprintln(w)
}

// StatusLine writes a timestamped progress notice.
func StatusLine(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "[%s] %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// OutputKind names the three output formats a run can produce.
type OutputKind int

const (
	// OutputVisual renders a grid trace.
	OutputVisual OutputKind = iota
	// OutputStepCounts renders per-simulation step counts.
	OutputStepCounts
	// OutputHeatMap renders mean heat-map occupancy.
	OutputHeatMap
)

func (k OutputKind) name() string {
	switch k {
	case OutputVisual:
		return "visual"
	case OutputStepCounts:
		return "step-counts"
	case OutputHeatMap:
		return "heat-map"
	default:
		return "output"
	}
}

// DefaultOutputPath builds an auto-generated output file name from the
// output kind, the input file's base name, and the current time, e.g.
// "heat-map-room1-20260731-153000.txt".
func DefaultOutputPath(kind OutputKind, inputFile string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.txt", kind.name(), inputFile, now.Format("20060102-150405"))
}
