package policy

import (
	"fmt"

	"github.com/flux-sim/flux-sim/sim/trace"
)

// Diagnostics summarizes where a session went wrong. Rates are rounded to
// three decimals. The zero value describes an empty log.
type Diagnostics struct {
	Accuracy         float64 `json:"accuracy"`
	TotalSteps       int     `json:"total_steps"`
	FailureRate      float64 `json:"failure_rate"`
	MostFailedAction string  `json:"most_failed_action,omitempty"` // "" when nothing failed
	Stuck            bool    `json:"stuck"`
}

// Empty reports whether the diagnostics came from an empty log.
func (d Diagnostics) Empty() bool { return d.TotalSteps == 0 }

// WeakSpots analyzes a session's event log.
func (e *Engine) WeakSpots(log []trace.StepRecord) Diagnostics {
	if len(log) == 0 {
		return Diagnostics{}
	}
	accuracy := successRate(log)

	failed := make(map[string]int)
	var order []string
	for _, s := range log {
		if s.Success {
			continue
		}
		if failed[s.Action] == 0 {
			order = append(order, s.Action)
		}
		failed[s.Action]++
	}
	most := ""
	for _, action := range order {
		if most == "" || failed[action] > failed[most] {
			most = action
		}
	}

	return Diagnostics{
		Accuracy:         round3(accuracy),
		TotalSteps:       len(log),
		FailureRate:      round3(1 - accuracy),
		MostFailedAction: most,
		Stuck:            accuracy < e.cfg.StuckAccuracy && len(log) > e.cfg.StuckMinSteps,
	}
}

// RecommendationKind classifies the advice given after a session.
type RecommendationKind string

const (
	RecommendStuck          RecommendationKind = "stuck"
	RecommendFailingAction  RecommendationKind = "failing_action"
	RecommendReadyForHarder RecommendationKind = "ready_for_harder"
	RecommendKeepGoing      RecommendationKind = "keep_going"
)

// Recommendation is the post-session advice.
type Recommendation struct {
	Kind    RecommendationKind `json:"kind"`
	Action  string             `json:"action,omitempty"`
	Message string             `json:"message"`
}

// Recommend turns diagnostics into advice. The first matching rule wins:
// stuck, a dominant failure rate, high accuracy, otherwise keep going.
func (e *Engine) Recommend(d Diagnostics) Recommendation {
	switch {
	case d.Stuck:
		return Recommendation{
			Kind:    RecommendStuck,
			Message: "You seem stuck. Try the hint system in the terminal panel.",
		}
	case d.FailureRate > e.cfg.FailingActionRate:
		action := d.MostFailedAction
		if action == "" {
			action = "that command"
		}
		return Recommendation{
			Kind:    RecommendFailingAction,
			Action:  d.MostFailedAction,
			Message: fmt.Sprintf("The `%s` command is failing most. Check its syntax in the goal panel.", action),
		}
	case d.Accuracy > e.cfg.ReadyAccuracy:
		return Recommendation{
			Kind:    RecommendReadyForHarder,
			Message: "Great accuracy! You're ready to try a harder difficulty.",
		}
	default:
		return Recommendation{
			Kind:    RecommendKeepGoing,
			Message: "Keep going, you're making progress.",
		}
	}
}
