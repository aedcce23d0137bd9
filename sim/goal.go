package sim

// GoalOutcome reports progress toward a challenge goal after a step.
type GoalOutcome struct {
	Metric   string  `json:"metric"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Achieved bool    `json:"achieved"`
}

// GoalEvaluator judges whether a session has met its challenge goal.
// A session completes after the first step whose outcome is Achieved.
type GoalEvaluator interface {
	Evaluate(state State, result ActionResult) GoalOutcome
}

// lowerIsBetter lists metrics whose goal is reached from above.
var lowerIsBetter = map[string]bool{"fragmentation": true}

// MetricGoal compares one named state metric against a target. Most metrics
// are achieved at or above the target; fragmentation at or below it.
type MetricGoal struct {
	Metric string  `json:"type" yaml:"type" validate:"required"`
	Target float64 `json:"target" yaml:"target"`
}

// Evaluate reads the metric from state. Unknown metrics are never achieved.
func (g MetricGoal) Evaluate(state State, _ ActionResult) GoalOutcome {
	out := GoalOutcome{Metric: g.Metric, Target: g.Target}
	v, ok := StateMetric(state, g.Metric)
	if !ok {
		return out
	}
	out.Current = v
	if lowerIsBetter[g.Metric] {
		out.Achieved = v <= g.Target
	} else {
		out.Achieved = v >= g.Target
	}
	return out
}

// StateMetric extracts a named numeric metric from state.
func StateMetric(state State, name string) (float64, bool) {
	switch name {
	case "steps":
		return float64(state.Steps), true
	case "entropy":
		return state.Entropy, true
	}
	if m := state.Memory; m != nil {
		switch name {
		case "fragmentation":
			return m.ExternalFragmentationRatio, true
		case "fragmentationCount":
			return float64(m.FragmentationCount), true
		case "totalFreeMemory":
			return float64(m.TotalFreeMemory), true
		case "totalAllocatedMemory":
			return float64(m.TotalAllocatedMemory), true
		case "largestFreeBlock":
			return float64(m.LargestFreeBlock), true
		case "allocatedBlockCount":
			return float64(m.AllocatedBlockCount), true
		case "compactionCount":
			return float64(m.CompactionCount), true
		}
	}
	if d := state.DBMS; d != nil {
		switch name {
		case "keyCount":
			return float64(len(d.BTree.Keys)), true
		case "totalNodeAccesses":
			return float64(d.TotalNodeAccesses), true
		case "hasRangeIndex":
			return boolMetric(d.HasRangeIndex), true
		case "hasPrimaryIndex":
			return boolMetric(d.HasPrimaryIndex), true
		case "lastQueryCost":
			if d.LastQueryPlan == nil {
				return 0, false
			}
			return float64(d.LastQueryPlan.EstimatedCost), true
		}
	}
	return 0, false
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
