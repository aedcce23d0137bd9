package sim

import "errors"

// ActionResult is the outcome of one simulator operation. Exactly one of the
// payload fields is set on success; Error and Kind are set on failure.
type ActionResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Kind    FailureKind    `json:"kind,omitempty"`
	Details map[string]any `json:"details,omitempty"`

	Allocation      *Allocation     `json:"allocation,omitempty"`
	Release         *Release        `json:"release,omitempty"`
	CompactionCount *int64          `json:"compactionCount,omitempty"`
	Memory          *MemoryAnalysis `json:"memory,omitempty"`
	KeyOperation    *KeyOperation   `json:"keyOperation,omitempty"`
	QueryPlan       *QueryPlan      `json:"queryPlan,omitempty"`
	Index           *IndexChange    `json:"index,omitempty"`
	DBMS            *DBMSAnalysis   `json:"dbms,omitempty"`
}

// failedResult converts an operation error into an unsuccessful result.
func failedResult(err error) ActionResult {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ActionResult{Error: ae.Message, Kind: ae.Kind, Details: ae.Details}
	}
	return ActionResult{Error: err.Error()}
}

// StepResult is what ApplyAction reports for every admitted command.
type StepResult struct {
	Success  bool          `json:"success"`
	Action   string        `json:"action"` // canonical name, or the raw name when unknown
	Result   ActionResult  `json:"result"`
	SimState State         `json:"simState"`
	Entropy  float64       `json:"entropy"` // rounded to 4 decimals
	Step     int           `json:"step"`
	Goal     *GoalOutcome  `json:"goal,omitempty"`
	Status   SessionStatus `json:"status"`
}
