// Package policy holds the adaptive decisions made between sessions: target
// difficulty, hint escalation, challenge format and weak-spot diagnostics.
//
// Every decision is a pure function of a mastery map and session telemetry.
// The only state is the static threshold table (Config) and hint content
// (ContentRegistry); per-session hint progress lives in HintLadder.
package policy

import (
	"fmt"
	"maps"
	"slices"

	"github.com/flux-sim/flux-sim/sim"
)

// Config is the threshold table behind every policy decision.
type Config struct {
	// DifficultyBreakpoints bucket mastery into levels 1..len+1: p below
	// breakpoint i maps to level i+1.
	DifficultyBreakpoints []float64 `yaml:"difficulty_breakpoints" validate:"min=1,dive,gte=0,lte=1"`
	TooEasyAccuracy       float64   `yaml:"too_easy_accuracy" validate:"gte=0,lte=1"` // recent accuracy above: one level up
	TooHardAccuracy       float64   `yaml:"too_hard_accuracy" validate:"gte=0,lte=1"` // recent accuracy below: one level down

	// HintTriggers maps hint level to the failed-step count that makes it due.
	HintTriggers      map[int]int `yaml:"hint_triggers" validate:"min=1,dive,keys,gte=1,lte=3,endkeys,gte=0"`
	HintFloorAccuracy float64     `yaml:"hint_floor_accuracy" validate:"gte=0,lte=1"`
	HintFloorLevel    int         `yaml:"hint_floor_level" validate:"gte=0,lte=3"`

	ConceptCheckBelow   float64 `yaml:"concept_check_below" validate:"gte=0,lte=1"`
	VisualAccuracyBelow float64 `yaml:"visual_accuracy_below" validate:"gte=0,lte=1"`
	SimulatorBelow      float64 `yaml:"simulator_below" validate:"gte=0,lte=1"`
	VisualizationBelow  float64 `yaml:"visualization_below" validate:"gte=0,lte=1"`

	StuckAccuracy     float64 `yaml:"stuck_accuracy" validate:"gte=0,lte=1"`
	StuckMinSteps     int     `yaml:"stuck_min_steps" validate:"gte=0"` // stuck needs strictly more steps
	FailingActionRate float64 `yaml:"failing_action_rate" validate:"gte=0,lte=1"`
	ReadyAccuracy     float64 `yaml:"ready_accuracy" validate:"gte=0,lte=1"`

	RecentWindow           int     `yaml:"recent_window" validate:"gte=1"`
	DefaultMastery         float64 `yaml:"default_mastery" validate:"gte=0,lte=1"`
	DefaultSessionAccuracy float64 `yaml:"default_session_accuracy" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		DifficultyBreakpoints:  []float64{0.35, 0.55, 0.70, 0.85},
		TooEasyAccuracy:        0.85,
		TooHardAccuracy:        0.50,
		HintTriggers:           map[int]int{1: 2, 2: 4, 3: 7},
		HintFloorAccuracy:      0.40,
		HintFloorLevel:         2,
		ConceptCheckBelow:      0.40,
		VisualAccuracyBelow:    0.50,
		SimulatorBelow:         0.70,
		VisualizationBelow:     0.60,
		StuckAccuracy:          0.30,
		StuckMinSteps:          5,
		FailingActionRate:      0.6,
		ReadyAccuracy:          0.8,
		RecentWindow:           3,
		DefaultMastery:         0.3,
		DefaultSessionAccuracy: 0.5,
	}
}

// Validate checks ranges and that breakpoints ascend.
func (c Config) Validate() error {
	if err := sim.Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid policy config: %w", err)
	}
	if !slices.IsSorted(c.DifficultyBreakpoints) {
		return fmt.Errorf("invalid policy config: difficulty_breakpoints must ascend, got %v", c.DifficultyBreakpoints)
	}
	return nil
}

// MaxDifficulty is the highest level the breakpoints produce.
func (c Config) MaxDifficulty() int {
	return len(c.DifficultyBreakpoints) + 1
}

// hintLevels returns the trigger levels in ascending order.
func (c Config) hintLevels() []int {
	return slices.Sorted(maps.Keys(c.HintTriggers))
}
