package policy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/flux-sim/flux-sim/sim/trace"
)

// Accuracy is an optional success rate. The zero value is unknown.
type Accuracy struct {
	Value float64
	Known bool
}

// KnownAccuracy wraps a measured success rate.
func KnownAccuracy(v float64) Accuracy {
	return Accuracy{Value: v, Known: true}
}

func (a Accuracy) String() string {
	if !a.Known {
		return "unknown"
	}
	return fmt.Sprintf("%.3f", a.Value)
}

// ChallengeType is the recommended format of the next challenge.
type ChallengeType string

const (
	ChallengeConceptCheck ChallengeType = "mcq"
	ChallengeVisual       ChallengeType = "visual"
	ChallengeSimulator    ChallengeType = "simulator"
	ChallengeDebug        ChallengeType = "debug"
)

var difficultyLabels = []string{"", "Beginner", "Easy", "Intermediate", "Advanced", "Expert"}

// DifficultyLabel names a difficulty level, or "" outside 1..5.
func DifficultyLabel(level int) string {
	if level < 0 || level >= len(difficultyLabels) {
		return ""
	}
	return difficultyLabels[level]
}

// Engine makes adaptive decisions. It holds no per-learner state and is safe
// for concurrent use.
type Engine struct {
	cfg     Config
	content ContentRegistry
}

// NewEngine creates a policy engine. Panics on an invalid config or nil content.
func NewEngine(cfg Config, content ContentRegistry) *Engine {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewEngine: %v", err))
	}
	if content == nil {
		panic("NewEngine: content registry must not be nil")
	}
	return &Engine{cfg: cfg, content: content}
}

// Config returns the engine thresholds.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) masteryOf(mastery map[string]float64, slug string) float64 {
	if p, ok := mastery[slug]; ok {
		return p
	}
	return e.cfg.DefaultMastery
}

// BaseDifficulty buckets a mastery probability into a level.
func (e *Engine) BaseDifficulty(p float64) int {
	for i, bp := range e.cfg.DifficultyBreakpoints {
		if p < bp {
			return i + 1
		}
	}
	return e.cfg.MaxDifficulty()
}

// TargetDifficulty recommends a level for the next challenge on slug:
// the mastery bucket moved one level by recent accuracy, clamped.
func (e *Engine) TargetDifficulty(mastery map[string]float64, slug string, recent Accuracy) int {
	level := e.BaseDifficulty(e.masteryOf(mastery, slug))
	if recent.Known {
		switch {
		case recent.Value > e.cfg.TooEasyAccuracy:
			level = min(level+1, e.cfg.MaxDifficulty())
		case recent.Value < e.cfg.TooHardAccuracy:
			level = max(level-1, 1)
		}
	}
	return level
}

// DueHintLevel returns the hint level a session has earned.
func (e *Engine) DueHintLevel(stepsSinceSuccess int, sessionAccuracy float64) int {
	due := 0
	for _, level := range e.cfg.hintLevels() {
		if stepsSinceSuccess >= e.cfg.HintTriggers[level] {
			due = level
		}
	}
	if sessionAccuracy < e.cfg.HintFloorAccuracy {
		due = max(due, e.cfg.HintFloorLevel)
	}
	return due
}

// NextHint returns the hint due for a challenge, or false when nothing above
// currentLevel is due or the content has no hint at the due level.
func (e *Engine) NextHint(challenge string, stepsSinceSuccess int, sessionAccuracy float64, currentLevel int) (Hint, bool) {
	due := e.DueHintLevel(stepsSinceSuccess, sessionAccuracy)
	if due <= currentLevel {
		return Hint{}, false
	}
	if hints, ok := e.content.ChallengeHints(challenge); ok {
		return hintAt(hints, due)
	}
	return e.content.GenericHint(due)
}

// NextChallengeType recommends the format of the next challenge on slug.
func (e *Engine) NextChallengeType(mastery map[string]float64, slug string, recent Accuracy) ChallengeType {
	p := e.masteryOf(mastery, slug)
	switch {
	case p < e.cfg.ConceptCheckBelow:
		return ChallengeConceptCheck
	case recent.Known && recent.Value < e.cfg.VisualAccuracyBelow:
		return ChallengeVisual
	case p < e.cfg.SimulatorBelow:
		return ChallengeSimulator
	default:
		return ChallengeDebug
	}
}

// ShouldShowVisualization is true when recent accuracy is known and low.
func (e *Engine) ShouldShowVisualization(recent Accuracy) bool {
	return recent.Known && recent.Value < e.cfg.VisualizationBelow
}

// RecentAccuracy pools the step outcomes of the most recent completed
// sessions (oldest first in sessions) up to the configured window.
// Unknown when there are no sessions or no steps.
func (e *Engine) RecentAccuracy(sessions [][]trace.StepRecord) Accuracy {
	if len(sessions) > e.cfg.RecentWindow {
		sessions = sessions[len(sessions)-e.cfg.RecentWindow:]
	}
	var outcomes []float64
	for _, log := range sessions {
		for _, s := range log {
			outcomes = append(outcomes, boolToFloat(s.Success))
		}
	}
	if len(outcomes) == 0 {
		return Accuracy{}
	}
	return KnownAccuracy(stat.Mean(outcomes, nil))
}

// SessionTelemetry derives hint inputs from a live session's log: trailing
// failures and overall accuracy (the configured default when empty).
func (e *Engine) SessionTelemetry(log []trace.StepRecord) (stepsSinceSuccess int, accuracy float64) {
	if len(log) == 0 {
		return 0, e.cfg.DefaultSessionAccuracy
	}
	for i := len(log) - 1; i >= 0 && !log[i].Success; i-- {
		stepsSinceSuccess++
	}
	return stepsSinceSuccess, successRate(log)
}

func successRate(log []trace.StepRecord) float64 {
	correct := 0
	for _, s := range log {
		if s.Success {
			correct++
		}
	}
	return float64(correct) / float64(len(log))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func round3(v float64) float64 {
	return math.Round(v*1e3) / 1e3
}
