package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flux-sim/flux-sim/sim/trace"
)

func TestTraceRecorder_RecordsStepsPerSession(t *testing.T) {
	// GIVEN a step-level recorder attached to the engine
	rec := NewTraceRecorder(trace.TraceConfig{Level: trace.TraceLevelSteps})
	e := newTestEngine(WithObserver(rec))
	s := mustStart(t, e, "OS", InitialState{}, WithSessionID("learner-1"))

	// WHEN a success and a failure are applied
	_, err := s.ApplyAction("allocate", Params{"size": 8})
	require.NoError(t, err)
	_, err = s.ApplyAction("free", Params{"address": 512})
	require.NoError(t, err)

	// THEN both steps are traced in order
	st := rec.Trace("learner-1")
	require.NotNil(t, st)
	require.Len(t, st.Steps, 2)
	assert.Equal(t, trace.StepRecord{Step: 1, Action: "allocate", Success: true, Entropy: 0.305}, st.Steps[0])
	assert.Equal(t, "not_allocated", st.Steps[1].FailureKind)
	assert.Equal(t, 1, st.StepsSinceSuccess())
}

func TestTraceRecorder_LevelNone_RecordsNothing(t *testing.T) {
	rec := NewTraceRecorder(trace.TraceConfig{Level: trace.TraceLevelNone})
	s := mustStart(t, newTestEngine(WithObserver(rec)), "DBMS", InitialState{}, WithSessionID("x"))
	_, err := s.ApplyAction("analyze", nil)
	require.NoError(t, err)
	rec.RecordAdmission("x", "insert", false, "nope")
	assert.Nil(t, rec.Trace("x"))
}

func TestObservers_FanOutSkipsNil(t *testing.T) {
	a := &recordingObserver{steps: map[string]int{}}
	b := &recordingObserver{steps: map[string]int{}}
	s := mustStart(t, newTestEngine(WithObserver(Observers(a, nil, b))), "OS", InitialState{}, WithSessionID("s"))
	_, err := s.ApplyAction("compact", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, a.steps["s"])
	assert.Equal(t, 1, b.steps["s"])
}
