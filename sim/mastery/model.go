// Package mastery implements Bayesian Knowledge Tracing over a competency
// prerequisite graph.
//
// The model is stateless arithmetic: callers own the mastery probabilities
// and persist them however they like. Tracker is a convenience holder for one
// learner's records.
package mastery

import (
	"fmt"
	"math"

	"github.com/flux-sim/flux-sim/sim"
)

// Params are the BKT parameters, fixed per deployment.
type Params struct {
	Transit   float64 `yaml:"transit" validate:"gte=0,lte=1"`  // P(learn) per observation
	Slip      float64 `yaml:"slip" validate:"gte=0,lte=1"`     // P(wrong | mastered)
	Guess     float64 `yaml:"guess" validate:"gte=0,lte=1"`    // P(right | not mastered)
	Threshold float64 `yaml:"threshold" validate:"gt=0,lte=1"` // mastered at or above
	Prior     float64 `yaml:"prior" validate:"gte=0,lte=1"`    // p for never-observed competencies
}

// DefaultParams returns transit 0.09, slip 0.10, guess 0.20, threshold 0.80, prior 0.3.
func DefaultParams() Params {
	return Params{Transit: 0.09, Slip: 0.10, Guess: 0.20, Threshold: 0.80, Prior: 0.3}
}

// Validate checks every parameter is a probability.
func (p Params) Validate() error {
	if err := sim.Validator().Struct(p); err != nil {
		return fmt.Errorf("invalid mastery params: %w", err)
	}
	return nil
}

// Model applies BKT updates under fixed parameters.
type Model struct {
	params Params
}

// NewModel creates a model. Panics if params fail validation.
func NewModel(params Params) *Model {
	if err := params.Validate(); err != nil {
		panic(fmt.Sprintf("NewModel: %v", err))
	}
	return &Model{params: params}
}

// Params returns the model parameters.
func (m *Model) Params() Params { return m.params }

// Update returns the mastery probability after observing one outcome.
// The observation is applied first, then the learning transition.
func (m *Model) Update(p float64, correct bool) float64 {
	var num, den float64
	if correct {
		num = p * (1 - m.params.Slip)
		den = num + (1-p)*m.params.Guess
	} else {
		num = p * m.params.Slip
		den = num + (1-p)*(1-m.params.Guess)
	}
	posterior := p
	if den != 0 {
		posterior = num / den
	}
	return posterior + (1-posterior)*m.params.Transit
}

// BulkUpdate folds Update over outcomes left to right. Order matters.
func (m *Model) BulkUpdate(p float64, outcomes []bool) float64 {
	for _, correct := range outcomes {
		p = m.Update(p, correct)
	}
	return p
}

// Mastered reports whether p reaches the mastery threshold.
func (m *Model) Mastered(p float64) bool {
	return p >= m.params.Threshold
}

// Record is one learner's standing on one competency.
type Record struct {
	Competency string  `json:"competency" yaml:"competency"`
	PMastery   float64 `json:"p_mastery" yaml:"p_mastery"`
	Attempts   int     `json:"attempts" yaml:"attempts"`
	Correct    int     `json:"correct" yaml:"correct"`
}

// Update describes the effect of one session on a record.
type Update struct {
	Competency string  `json:"competency"`
	OldP       float64 `json:"old_p"` // rounded to 4 decimals
	NewP       float64 `json:"new_p"` // rounded to 4 decimals
	Mastered   bool    `json:"mastered"`
}

// Observe folds a session's step outcomes into rec.
func (m *Model) Observe(rec Record, outcomes []bool) (Record, Update) {
	old := rec.PMastery
	rec.PMastery = m.BulkUpdate(rec.PMastery, outcomes)
	rec.Attempts += len(outcomes)
	for _, ok := range outcomes {
		if ok {
			rec.Correct++
		}
	}
	return rec, Update{
		Competency: rec.Competency,
		OldP:       round4(old),
		NewP:       round4(rec.PMastery),
		Mastered:   m.Mastered(rec.PMastery),
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
