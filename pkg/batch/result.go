package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Record is the persisted record of one RunBatch invocation: the
// inputs needed to reproduce it deterministically, plus its results.
type Record struct {
	EnvironmentFile string          `json:"environment_file"`
	AuxiliaryFile   string          `json:"auxiliary_file"`
	Config          Config          `json:"config"`
	Results         []ExitSetResult `json:"results"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// Save writes r as indented JSON to path, creating or truncating it.
func Save(path string, r Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling batch record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing batch record to %s: %w", path, err)
	}
	return nil
}

// Load reads and parses a batch record previously written by Save.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading batch record %s: %w", path, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("parsing batch record %s: %w", path, err)
	}
	return r, nil
}

// StepCounts flattens every non-skipped simulation's step count across
// all exit sets in the record.
func (r Record) StepCounts() []int {
	var steps []int
	for _, set := range r.Results {
		if set.Skipped {
			continue
		}
		for _, sim := range set.Simulations {
			steps = append(steps, sim.Steps)
		}
	}
	return steps
}
