// Package testutil provides shared test infrastructure for the simulation
// engine: the golden session dataset and float assertion helpers used across
// sim/ and its sub-package tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_sessions.json.
type GoldenDataset struct {
	Sessions []GoldenSession `json:"sessions"`
}

// GoldenSession is one scripted session and its expected trajectory.
type GoldenSession struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	// InitialState is kept raw so this package does not import sim.
	InitialState json.RawMessage    `json:"initial_state"`
	Steps        []GoldenStep       `json:"steps"`
	Final        map[string]float64 `json:"final"` // state metric name -> expected value
}

// GoldenStep is one scripted action and its expected outcome.
type GoldenStep struct {
	Action  string         `json:"action"`
	Params  map[string]any `json:"params"`
	Success bool           `json:"success"`
	Kind    string         `json:"kind"`    // failure kind, empty on success
	Entropy float64        `json:"entropy"` // unrounded entropy after the step
}

// LoadGoldenDataset loads the golden sessions from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_sessions.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertInUnitInterval fails when v is outside [0, 1].
func AssertInUnitInterval(t *testing.T, name string, v float64) {
	t.Helper()
	if math.IsNaN(v) || v < 0 || v > 1 {
		t.Errorf("%s: %v outside [0, 1]", name, v)
	}
}
