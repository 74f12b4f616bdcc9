package batch

import (
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord() Record {
	return Record{
		EnvironmentFile: "room1.txt",
		AuxiliaryFile:   "room1.aux",
		Config:          baseConfig(),
		GeneratedAt:     time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		Results: []ExitSetResult{
			{
				ExitSetIndex: 0,
				Simulations: []SimulationResult{
					{Index: 0, Steps: 12},
					{Index: 1, Steps: 15},
				},
			},
			{
				ExitSetIndex: 1,
				Skipped:      true,
			},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	want := sampleRecord()

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.EnvironmentFile != want.EnvironmentFile || got.AuxiliaryFile != want.AuxiliaryFile {
		t.Fatalf("round-tripped record lost file names: %+v", got)
	}
	if !got.GeneratedAt.Equal(want.GeneratedAt) {
		t.Fatalf("round-tripped record lost timestamp: got %v want %v", got.GeneratedAt, want.GeneratedAt)
	}
	if len(got.Results) != len(want.Results) {
		t.Fatalf("expected %d results, got %d", len(want.Results), len(got.Results))
	}
	if got.Results[1].Skipped != true {
		t.Fatalf("expected the skipped exit set to round-trip as skipped")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error loading a missing file")
	}
}

func TestStepCountsFlattensAcrossExitSetsSkippingSkipped(t *testing.T) {
	r := sampleRecord()

	steps := r.StepCounts()

	if len(steps) != 2 {
		t.Fatalf("expected 2 step counts (skipped exit set excluded), got %v", steps)
	}
	if steps[0] != 12 || steps[1] != 15 {
		t.Fatalf("expected [12 15], got %v", steps)
	}
}

func TestStepCountsEmptyWhenAllSkipped(t *testing.T) {
	r := Record{Results: []ExitSetResult{{Skipped: true}, {Skipped: true}}}
	if steps := r.StepCounts(); len(steps) != 0 {
		t.Fatalf("expected no step counts when every exit set was skipped, got %v", steps)
	}
}
