package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flux-sim/flux-sim/sim/trace"
)

func steps(outcomes ...any) []trace.StepRecord {
	var log []trace.StepRecord
	for i := 0; i < len(outcomes); i += 2 {
		log = append(log, trace.StepRecord{
			Step:    i/2 + 1,
			Action:  outcomes[i].(string),
			Success: outcomes[i+1].(bool),
		})
	}
	return log
}

func TestEngine_WeakSpots_Empty(t *testing.T) {
	d := newTestEngine().WeakSpots(nil)
	assert.True(t, d.Empty())
	assert.Equal(t, Diagnostics{}, d)
}

func TestEngine_WeakSpots_TieGoesToFirstSeen(t *testing.T) {
	// GIVEN two actions failing equally often, allocate first
	log := steps("allocate", false, "free", false, "free", false, "allocate", false, "compact", true)

	// WHEN analyzed
	d := newTestEngine().WeakSpots(log)

	// THEN allocate is the most failed and five steps are not enough to be stuck
	assert.Equal(t, "allocate", d.MostFailedAction)
	assert.Equal(t, 0.2, d.Accuracy)
	assert.Equal(t, 0.8, d.FailureRate)
	assert.Equal(t, 5, d.TotalSteps)
	assert.False(t, d.Stuck)
}

func TestEngine_WeakSpots_Stuck(t *testing.T) {
	log := steps("insert", false, "insert", false, "delete", false, "insert", true, "query", false, "query", false)
	d := newTestEngine().WeakSpots(log)
	assert.True(t, d.Stuck)
	assert.Equal(t, 0.167, d.Accuracy)
	assert.Equal(t, 0.833, d.FailureRate)
	assert.Equal(t, "insert", d.MostFailedAction)
}

func TestEngine_WeakSpots_NoFailures(t *testing.T) {
	d := newTestEngine().WeakSpots(steps("analyze", true, "compact", true))
	assert.Equal(t, "", d.MostFailedAction)
	assert.Equal(t, 1.0, d.Accuracy)
	assert.Equal(t, 0.0, d.FailureRate)
}

func TestEngine_Recommend(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		d    Diagnostics
		want RecommendationKind
	}{
		{"stuck wins", Diagnostics{Stuck: true, FailureRate: 0.9, MostFailedAction: "free"}, RecommendStuck},
		{"dominant failure", Diagnostics{Accuracy: 0.2, FailureRate: 0.8, MostFailedAction: "free", TotalSteps: 5}, RecommendFailingAction},
		{"high accuracy", Diagnostics{Accuracy: 0.9, FailureRate: 0.1, TotalSteps: 10}, RecommendReadyForHarder},
		{"middling", Diagnostics{Accuracy: 0.6, FailureRate: 0.4, TotalSteps: 10}, RecommendKeepGoing},
		{"empty log", Diagnostics{}, RecommendKeepGoing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Recommend(tt.d).Kind)
		})
	}

	r := e.Recommend(Diagnostics{Accuracy: 0.2, FailureRate: 0.8, MostFailedAction: "free"})
	assert.Equal(t, "free", r.Action)
	assert.Contains(t, r.Message, "`free`")
}
