// Package batch drives one or more exit sets through many independent
// simulations, merging their heat maps and collecting per-simulation
// step counts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"evacsim/pkg/environment"
	"evacsim/pkg/grid"
	"evacsim/pkg/pedestrian"
	"evacsim/pkg/simulation"
)

// Config controls one RunBatch invocation.
type Config struct {
	NumSimulations        int               `json:"num_simulations"`
	NumPedestrians        int               `json:"num_pedestrians"`
	BaseSeed              int64             `json:"base_seed"`
	Workers               int               `json:"workers"`
	RandomPlacement       bool              `json:"random_placement"`
	MaxTicksPerSimulation int               `json:"max_ticks_per_simulation"`
	Sim                   simulation.Config `json:"sim"`

	// TickObserver, when set, is invoked between ticks of every
	// simulation: once at tick 0 for the initial placement, then after
	// each tick's grid refresh. Callers that render frames in order
	// should also set Workers to 1, since with more workers the
	// callback runs concurrently across simulations.
	TickObserver func(simIndex, tick int, pop *pedestrian.Population, combined grid.FloatGrid) `json:"-"`
}

// SimulationResult is the outcome of a single simulation run.
type SimulationResult struct {
	Index int `json:"index"`
	Steps int `json:"steps"`
}

// ExitSetResult collects every simulation run against one exit set.
type ExitSetResult struct {
	ExitSetIndex int                `json:"exit_set_index"`
	Skipped      bool               `json:"skipped"` // true when the exit set contained an inaccessible exit
	Simulations  []SimulationResult `json:"simulations,omitempty"`
	HeatMap      simulation.HeatMap `json:"heat_map,omitempty"`
}

// RunBatch builds the floor field for each exit batch in turn and runs
// cfg.NumSimulations independent simulations against it. With random
// placement the simulations spread across cfg.Workers goroutines, each
// owning its own population; with explicit placement one population is
// reset to its origins between simulations, which forces that loop to
// run sequentially. An exit set with an inaccessible exit is skipped
// (recorded with Skipped=true) rather than aborting the whole batch.
func RunBatch(ctx context.Context, env *environment.Environment, batches []environment.ExitBatch, cfg Config) ([]ExitSetResult, error) {
	if cfg.NumSimulations <= 0 {
		return nil, fmt.Errorf("num simulations must be positive, got %d", cfg.NumSimulations)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]ExitSetResult, 0, len(batches))

	for i, eb := range batches {
		exitSet := &environment.ExitSet{}
		for _, cells := range eb.Exits {
			if len(cells) == 0 {
				continue
			}
			e := exitSet.AddExit(cells[0])
			for _, c := range cells[1:] {
				e.Expand(c)
			}
		}

		inaccessible, err := buildExitSetFields(exitSet, env)
		if err != nil {
			return nil, fmt.Errorf("exit set %d: %w", i, err)
		}
		if inaccessible {
			results = append(results, ExitSetResult{ExitSetIndex: i, Skipped: true})
			continue
		}
		if err := exitSet.Combine(); err != nil {
			return nil, fmt.Errorf("exit set %d: combining floor fields: %w", i, err)
		}

		setResult, err := runSimulations(ctx, env, exitSet.CombinedField, cfg, workers)
		if err != nil {
			return nil, fmt.Errorf("exit set %d: %w", i, err)
		}
		setResult.ExitSetIndex = i
		results = append(results, setResult)
	}

	return results, nil
}

func buildExitSetFields(exitSet *environment.ExitSet, env *environment.Environment) (inaccessible bool, err error) {
	for _, e := range exitSet.Exits {
		buildErr := e.BuildField(env)
		if buildErr == nil {
			continue
		}
		if errors.Is(buildErr, environment.ErrInaccessibleExit) {
			return true, nil
		}
		return false, buildErr
	}
	return false, nil
}

func runSimulations(ctx context.Context, env *environment.Environment, combined grid.FloatGrid, cfg Config, workers int) (ExitSetResult, error) {
	if !cfg.RandomPlacement {
		return runPlacedSimulations(ctx, env, combined, cfg)
	}

	heatmap := simulation.NewHeatMap(env.Rows, env.Cols)
	simResults := make([]SimulationResult, cfg.NumSimulations)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)
	var mu sync.Mutex

	for s := 0; s < cfg.NumSimulations; s++ {
		s := s
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			steps, simHeat, err := runOneSimulation(env, combined, cfg, s)
			if err != nil {
				return fmt.Errorf("simulation %d: %w", s, err)
			}

			mu.Lock()
			heatmap.Merge(simHeat)
			mu.Unlock()

			simResults[s] = SimulationResult{Index: s, Steps: steps}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ExitSetResult{}, err
	}

	return ExitSetResult{Simulations: simResults, HeatMap: heatmap}, nil
}

// runPlacedSimulations runs the explicit-placement simulation loop: one
// population is allocated per exit set and reset to its origins between
// simulations. The shared population means the loop cannot be spread
// across workers without racing, so explicit placement trades the
// worker pool for the reset semantics; its heat map accumulates across
// the whole loop, counting each origin once at creation rather than
// once per simulation.
func runPlacedSimulations(ctx context.Context, env *environment.Environment, combined grid.FloatGrid, cfg Config) (ExitSetResult, error) {
	pop := pedestrian.NewPopulation(env.Rows, env.Cols)
	pop.PlaceFromEnvironment(env)

	simResults := make([]SimulationResult, cfg.NumSimulations)
	for s := 0; s < cfg.NumSimulations; s++ {
		if err := ctx.Err(); err != nil {
			return ExitSetResult{}, err
		}
		if s > 0 {
			pop.ResetToOrigin()
		}

		rng := rand.New(rand.NewSource(cfg.BaseSeed + int64(s)))
		var observe func(tick int)
		if cfg.TickObserver != nil {
			sim := s
			observe = func(tick int) { cfg.TickObserver(sim, tick, pop, combined) }
		}

		steps := simulation.RunTrace(pop, combined, cfg.Sim, rng, cfg.MaxTicksPerSimulation, observe)
		simResults[s] = SimulationResult{Index: s, Steps: steps}
	}

	return ExitSetResult{Simulations: simResults, HeatMap: simulation.HeatMap(pop.HeatMap)}, nil
}

// runOneSimulation runs a single random-placement simulation with its
// own population and heat map, safe to call from any worker.
func runOneSimulation(env *environment.Environment, combined grid.FloatGrid, cfg Config, index int) (int, simulation.HeatMap, error) {
	seed := cfg.BaseSeed + int64(index)
	rng := rand.New(rand.NewSource(seed))

	pop := pedestrian.NewPopulation(env.Rows, env.Cols)
	if err := pop.RandomPlace(cfg.NumPedestrians, combined, rng); err != nil {
		return 0, nil, err
	}

	var observe func(tick int)
	if cfg.TickObserver != nil {
		observe = func(tick int) { cfg.TickObserver(index, tick, pop, combined) }
	}

	steps := simulation.RunTrace(pop, combined, cfg.Sim, rng, cfg.MaxTicksPerSimulation, observe)
	return steps, simulation.HeatMap(pop.HeatMap), nil
}
