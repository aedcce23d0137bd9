package sim

import (
	"sync"

	"github.com/flux-sim/flux-sim/sim/trace"
)

type multiObserver []StepObserver

func (m multiObserver) ObserveStep(id string, domain Domain, result StepResult) {
	for _, o := range m {
		o.ObserveStep(id, domain, result)
	}
}

// Observers fans every step out to each non-nil observer in order.
func Observers(obs ...StepObserver) StepObserver {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// TraceRecorder keeps a step trace per session. Safe for concurrent use.
type TraceRecorder struct {
	mu     sync.Mutex
	config trace.TraceConfig
	traces map[string]*trace.SessionTrace
}

// NewTraceRecorder creates a recorder. With TraceLevelNone it records nothing.
func NewTraceRecorder(config trace.TraceConfig) *TraceRecorder {
	return &TraceRecorder{config: config, traces: make(map[string]*trace.SessionTrace)}
}

func (r *TraceRecorder) enabled() bool {
	return r.config.Level == trace.TraceLevelSteps
}

func (r *TraceRecorder) traceFor(id string) *trace.SessionTrace {
	st, ok := r.traces[id]
	if !ok {
		st = trace.NewSessionTrace(id, r.config)
		r.traces[id] = st
	}
	return st
}

// ObserveStep records the step under its session.
func (r *TraceRecorder) ObserveStep(id string, _ Domain, result StepResult) {
	if !r.enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traceFor(id).RecordStep(trace.StepRecord{
		Step:        result.Step,
		Action:      result.Action,
		Success:     result.Success,
		FailureKind: string(result.Result.Kind),
		Error:       result.Result.Error,
		Entropy:     result.Entropy,
	})
}

// RecordAdmission records an admission decision for a session.
func (r *TraceRecorder) RecordAdmission(id, action string, admitted bool, reason string) {
	if !r.enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traceFor(id).RecordAdmission(trace.AdmissionRecord{Action: action, Admitted: admitted, Reason: reason})
}

// Trace returns the trace of a session, or nil if nothing was recorded.
func (r *TraceRecorder) Trace(id string) *trace.SessionTrace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.traces[id]
}
