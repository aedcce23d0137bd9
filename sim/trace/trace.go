package trace

// TraceLevel controls the verbosity of step tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSteps captures every applied step and admission decision.
	TraceLevelSteps TraceLevel = "steps"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelSteps: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SessionTrace collects the step history of one session, oldest first.
type SessionTrace struct {
	Config     TraceConfig
	SessionID  string
	Steps      []StepRecord
	Admissions []AdmissionRecord
}

// NewSessionTrace creates a SessionTrace ready for recording.
func NewSessionTrace(sessionID string, config TraceConfig) *SessionTrace {
	return &SessionTrace{
		Config:     config,
		SessionID:  sessionID,
		Steps:      make([]StepRecord, 0),
		Admissions: make([]AdmissionRecord, 0),
	}
}

// RecordStep appends a step record.
func (st *SessionTrace) RecordStep(record StepRecord) {
	st.Steps = append(st.Steps, record)
}

// RecordAdmission appends an admission decision record.
func (st *SessionTrace) RecordAdmission(record AdmissionRecord) {
	st.Admissions = append(st.Admissions, record)
}

// Outcomes returns the success flag of every step, oldest first.
func (st *SessionTrace) Outcomes() []bool {
	out := make([]bool, len(st.Steps))
	for i, s := range st.Steps {
		out[i] = s.Success
	}
	return out
}

// StepsSinceSuccess counts trailing failed steps.
func (st *SessionTrace) StepsSinceSuccess() int {
	n := 0
	for i := len(st.Steps) - 1; i >= 0 && !st.Steps[i].Success; i-- {
		n++
	}
	return n
}
