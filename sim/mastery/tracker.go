package mastery

import (
	"maps"
	"slices"
	"sync"
)

// Tracker holds one learner's mastery records. Competencies never observed
// start at the model's prior. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	model   *Model
	records map[string]Record
}

// NewTracker creates an empty tracker.
func NewTracker(model *Model) *Tracker {
	return &Tracker{model: model, records: make(map[string]Record)}
}

func (t *Tracker) get(slug string) Record {
	rec, ok := t.records[slug]
	if !ok {
		rec = Record{Competency: slug, PMastery: t.model.params.Prior}
	}
	return rec
}

// Record returns the record for slug, seeded at the prior if unseen.
func (t *Tracker) Record(slug string) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(slug)
}

// Set overwrites the mastery probability for slug, keeping its counters.
func (t *Tracker) Set(slug string, p float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.get(slug)
	rec.PMastery = p
	t.records[slug] = rec
}

// Observe applies a session's outcomes to slug and stores the result.
func (t *Tracker) Observe(slug string, outcomes []bool) Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, upd := t.model.Observe(t.get(slug), outcomes)
	t.records[slug] = rec
	return upd
}

// MasteryMap returns slug → p_mastery (rounded to 4 decimals) for every
// competency with a record.
func (t *Tracker) MasteryMap() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.records))
	for slug, rec := range t.records {
		out[slug] = round4(rec.PMastery)
	}
	return out
}

// Competencies returns the slugs with records, sorted.
func (t *Tracker) Competencies() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Sorted(maps.Keys(t.records))
}
