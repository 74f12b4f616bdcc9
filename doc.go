// Package main provides the evacsim CLI, a cellular-automaton pedestrian
// evacuation simulator in the style of Varas (2007).
//
// # Overview
//
// evacsim evolves a population of pedestrians across a bounded grid one
// discrete tick at a time, driven by a static floor field computed from
// one or more exits. Each tick resolves panic, conflicting target cells,
// and diagonal "X" crossings into a single collision-free update. A run
// can report a visual trace of the grid over time, per-simulation step
// counts, or a heat map of cell occupancy averaged across a batch.
//
// # Commands
//
// ## simulate
//
// Runs one or more independent simulations against a single environment
// and exit configuration, printing or saving the chosen output.
//
//	evacsim simulate --input-file ambientes/room1.txt --num-simulations 100
//	evacsim simulate --input-file ambientes/room1.txt --output-type heat-map
//
// ## batch
//
// Sweeps every exit-batch line in an auxiliary file through
// --num-simulations simulations each, optionally in parallel, and saves
// the merged result as a JSON record.
//
//	evacsim batch --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux --workers 8
//
// ## render
//
// Prints a visual inspection of an environment, its combined floor
// field, or a previously saved batch record's heat map, without running
// a simulation.
//
//	evacsim render --input-file ambientes/room1.txt --style floor-field
//
// ## validate
//
// Checks an environment's structural integrity (a fully-enclosing wall
// border, sane dimensions) and, with an auxiliary file, every exit
// batch's accessibility.
//
//	evacsim validate --input-file ambientes/room1.txt --auxiliary-file saidas/room1.aux
//
// ## repair
//
// Scans a directory of saved batch-result JSON files and regenerates any
// that parse but hold no results, by re-running the batch from its
// recorded seed and configuration. A file that fails to parse is
// reported as failed and is not regenerated.
//
//	evacsim repair --directory output
//
// ## clean
//
// Removes generated output files from the resolved output directory.
//
//	evacsim clean
//
// # Architecture
//
// Package layout, leaves first:
//
//	pkg/grid        - matrix primitives, bounds checks, diagonal-corner rule
//	pkg/environment - environment parsing, exits, floor-field construction
//	pkg/pedestrian  - pedestrian lifecycle and population placement
//	pkg/simulation  - the per-tick movement pipeline and heat map
//	pkg/batch       - the simulation driver: one batch per exit set
//	pkg/render      - text/grid/heat-map output formatting
//	pkg/common      - logging, colorized diagnostics, path resolution
//	pkg/ui          - progress spinner
//	cmd/            - cobra command wiring for the commands above
//
// # Determinism
//
// Each simulation i within a batch is seeded with baseSeed+i and consumes
// its own *rand.Rand, so running a batch sequentially or across workers
// produces identical per-simulation results; only wall-clock time
// differs with --workers.
package main
