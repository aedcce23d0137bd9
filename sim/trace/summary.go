package trace

// TraceSummary aggregates statistics from a SessionTrace.
type TraceSummary struct {
	TotalSteps       int
	SuccessCount     int
	FailureCount     int
	Accuracy         float64 // SuccessCount / TotalSteps; 0 with no steps
	RejectedCount    int
	MeanEntropy      float64
	MinEntropy       float64
	MaxEntropy       float64
	FinalEntropy     float64
	FailuresByAction map[string]int // action → failed attempts
}

// Summarize computes aggregate statistics from a SessionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SessionTrace) *TraceSummary {
	summary := &TraceSummary{
		FailuresByAction: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	for _, a := range st.Admissions {
		if !a.Admitted {
			summary.RejectedCount++
		}
	}

	summary.TotalSteps = len(st.Steps)
	if summary.TotalSteps == 0 {
		return summary
	}
	totalEntropy := 0.0
	summary.MinEntropy = st.Steps[0].Entropy
	summary.MaxEntropy = st.Steps[0].Entropy
	for _, s := range st.Steps {
		if s.Success {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
			summary.FailuresByAction[s.Action]++
		}
		totalEntropy += s.Entropy
		summary.MinEntropy = min(summary.MinEntropy, s.Entropy)
		summary.MaxEntropy = max(summary.MaxEntropy, s.Entropy)
	}
	summary.Accuracy = float64(summary.SuccessCount) / float64(summary.TotalSteps)
	summary.MeanEntropy = totalEntropy / float64(summary.TotalSteps)
	summary.FinalEntropy = st.Steps[len(st.Steps)-1].Entropy

	return summary
}
