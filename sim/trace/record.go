// Package trace provides per-session step recording for learner analytics.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// StepRecord captures one applied learner command.
type StepRecord struct {
	Step        int     `json:"step"`
	Action      string  `json:"action"`
	Success     bool    `json:"success"`
	FailureKind string  `json:"failureKind,omitempty"`
	Error       string  `json:"error,omitempty"`
	Entropy     float64 `json:"entropy"`
}

// AdmissionRecord captures a command the challenge's admission policy judged.
type AdmissionRecord struct {
	Action   string `json:"action"`
	Admitted bool   `json:"admitted"`
	Reason   string `json:"reason,omitempty"`
}
