package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flux-sim/flux-sim/sim/internal/testutil"
)

func TestModel_Update_CorrectFromPrior(t *testing.T) {
	// GIVEN default parameters
	m := NewModel(DefaultParams())

	// WHEN a correct answer is observed at p=0.3
	p := m.Update(0.3, true)

	// THEN posterior 0.27/0.41 ≈ 0.6585 then learning lifts it to ≈ 0.6892
	posterior := 0.27 / 0.41
	testutil.AssertFloat64Equal(t, "p", posterior+(1-posterior)*0.09, p, 1e-12)
	testutil.AssertFloat64Equal(t, "p", 0.6892, p, 1e-4)
}

func TestModel_Update_IncorrectFromPrior(t *testing.T) {
	m := NewModel(DefaultParams())
	p := m.Update(0.3, false)
	posterior := 0.03 / 0.59
	testutil.AssertFloat64Equal(t, "p", posterior+(1-posterior)*0.09, p, 1e-12)
	assert.Less(t, p, 0.3)
}

func TestModel_Update_ZeroDenominatorKeepsPosterior(t *testing.T) {
	// GIVEN a model that can never guess and p=0
	params := DefaultParams()
	params.Guess = 0
	params.Transit = 0
	m := NewModel(params)

	// WHEN a correct answer is observed
	// THEN the denominator is zero and p stays put
	assert.Equal(t, 0.0, m.Update(0, true))
}

func TestModel_BulkUpdate_AllCorrectStrictlyIncreases(t *testing.T) {
	m := NewModel(DefaultParams())
	p := 0.3
	for i := 0; i < 15; i++ {
		next := m.BulkUpdate(p, []bool{true})
		assert.Greater(t, next, p, "step %d", i)
		assert.Less(t, next, 1.0)
		p = next
	}
}

func TestModel_BulkUpdate_EmptyLeavesPUnchanged(t *testing.T) {
	m := NewModel(DefaultParams())
	assert.Equal(t, 0.42, m.BulkUpdate(0.42, nil))
}

func TestModel_BulkUpdate_OrderMatters(t *testing.T) {
	// GIVEN the same outcomes in two orders
	m := NewModel(DefaultParams())

	// WHEN folded from the same prior
	a := m.BulkUpdate(0.3, []bool{true, false})
	b := m.BulkUpdate(0.3, []bool{false, true})

	// THEN the results differ and each equals the manual fold
	assert.NotEqual(t, a, b)
	assert.Equal(t, m.Update(m.Update(0.3, true), false), a)
	assert.Equal(t, m.Update(m.Update(0.3, false), true), b)
}

func TestModel_Mastered_AtThreshold(t *testing.T) {
	m := NewModel(DefaultParams())
	assert.True(t, m.Mastered(0.8))
	assert.False(t, m.Mastered(0.7999))
}

func TestModel_Observe_CountsAndRounding(t *testing.T) {
	// GIVEN a fresh record
	m := NewModel(DefaultParams())
	rec := Record{Competency: "memory_allocation", PMastery: 0.3}

	// WHEN a session with two successes and one failure is observed
	rec, upd := m.Observe(rec, []bool{true, false, true})

	// THEN counters accumulate and the update is rounded
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, 2, rec.Correct)
	assert.Equal(t, "memory_allocation", upd.Competency)
	assert.Equal(t, 0.3, upd.OldP)
	assert.Equal(t, round4(rec.PMastery), upd.NewP)
	assert.Equal(t, m.Mastered(rec.PMastery), upd.Mastered)
}

func TestNewModel_InvalidParamsPanics(t *testing.T) {
	params := DefaultParams()
	params.Slip = 1.5
	require.Error(t, params.Validate())
	assert.Panics(t, func() { NewModel(params) })
}

func TestTracker_LazyPriorAndMasteryMap(t *testing.T) {
	// GIVEN an empty tracker
	tr := NewTracker(NewModel(DefaultParams()))

	// WHEN an unseen competency is read
	// THEN it starts at the prior and is not yet in the map
	assert.Equal(t, 0.3, tr.Record("paging").PMastery)
	assert.Empty(t, tr.MasteryMap())

	// WHEN a session is observed and another competency is set
	upd := tr.Observe("paging", []bool{true})
	tr.Set("btree", 0.912345)

	// THEN both appear, rounded
	mm := tr.MasteryMap()
	assert.Equal(t, upd.NewP, mm["paging"])
	assert.Equal(t, 0.9123, mm["btree"])
	assert.Equal(t, []string{"btree", "paging"}, tr.Competencies())
	assert.Equal(t, 1, tr.Record("paging").Attempts)
}
