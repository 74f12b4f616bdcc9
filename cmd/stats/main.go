// Command stats summarizes saved batch-result JSON files: minimum,
// mean, and maximum evacuation step counts, plus the hottest cells in
// each exit set's heat map.
package main

import (
	"fmt"
	"os"
	"sort"

	"evacsim/pkg/batch"
)

type cellCount struct {
	row, col int
	count    int
}

func summarize(path string) error {
	rec, err := batch.Load(path)
	if err != nil {
		return err
	}

	steps := rec.StepCounts()
	if len(steps) == 0 {
		fmt.Printf("%s: no completed simulations\n", path)
		return nil
	}

	minSteps, maxSteps, total := steps[0], steps[0], 0
	for _, s := range steps {
		if s < minSteps {
			minSteps = s
		}
		if s > maxSteps {
			maxSteps = s
		}
		total += s
	}
	mean := float64(total) / float64(len(steps))

	fmt.Printf("%s: simulations=%d min=%d mean=%.1f max=%d\n", path, len(steps), minSteps, mean, maxSteps)

	for _, set := range rec.Results {
		if set.Skipped || len(set.HeatMap) == 0 {
			continue
		}
		hottest := topCells(set.HeatMap, 3)
		fmt.Printf("  exit set %d hottest cells:", set.ExitSetIndex)
		for _, c := range hottest {
			fmt.Printf(" (%d,%d)=%d", c.row, c.col, c.count)
		}
		fmt.Println()
	}

	return nil
}

func topCells(heatmap [][]int, n int) []cellCount {
	var cells []cellCount
	for r, row := range heatmap {
		for c, v := range row {
			if v > 0 {
				cells = append(cells, cellCount{row: r, col: c, count: v})
			}
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].count > cells[j].count })
	if len(cells) > n {
		cells = cells[:n]
	}
	return cells
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: stats <file1> [file2 ...]")
		os.Exit(1)
	}
	for _, p := range os.Args[1:] {
		if err := summarize(p); err != nil {
			fmt.Printf("error summarizing %s: %v\n", p, err)
		}
	}
}
