package sim

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// ValidSessionStatuses is the set of recognized status names.
var ValidSessionStatuses = map[SessionStatus]bool{StatusActive: true, StatusCompleted: true, StatusAbandoned: true}

// StepObserver receives every step a session records. Implementations must
// be safe for concurrent use when shared between sessions.
type StepObserver interface {
	ObserveStep(sessionID string, domain Domain, result StepResult)
}

// Session orchestrates one learner's run against one simulator. It owns the
// simulator, the difficulty controller and the rolling success window.
// A Session is not safe for concurrent use; distinct sessions are independent.
type Session struct {
	id         string
	domain     Domain
	status     SessionStatus
	entropy    float64
	steps      int
	window     []bool // most recent outcome last
	windowSize int
	controller *DifficultyController
	memory     *MemorySimulator    // set for OS sessions
	dbms       *QueryCostSimulator // set for DBMS sessions

	admission AdmissionPolicy
	goal      GoalEvaluator
	observer  StepObserver
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Domain returns the simulator domain.
func (s *Session) Domain() Domain { return s.domain }

// Status returns the lifecycle state.
func (s *Session) Status() SessionStatus { return s.status }

// Entropy returns the current difficulty level in [0, 1].
func (s *Session) Entropy() float64 { return s.entropy }

// Steps returns how many admitted actions have been applied.
func (s *Session) Steps() int { return s.steps }

// Window returns a copy of the rolling success window, oldest first.
func (s *Session) Window() []bool { return slices.Clone(s.window) }

// Controller exposes the difficulty controller.
func (s *Session) Controller() *DifficultyController { return s.controller }

// Memory returns the memory simulator of an OS session, or nil.
func (s *Session) Memory() *MemorySimulator { return s.memory }

// DBMS returns the query-cost simulator of a DBMS session, or nil.
func (s *Session) DBMS() *QueryCostSimulator { return s.dbms }

// ApplyAction runs one learner command and adapts difficulty.
//
// Learner mistakes (bad parameters, unknown actions, failed allocations)
// are unsuccessful steps, not errors. An error is returned only when the
// session is no longer active or the admission policy rejects the command;
// in both cases no state changes.
func (s *Session) ApplyAction(name string, params Params) (StepResult, error) {
	if s.status != StatusActive {
		return StepResult{}, fmt.Errorf("%w: session %s is %s", ErrSessionNotActive, s.id, s.status)
	}
	if ok, reason := s.admission.Admit(name); !ok {
		return StepResult{}, fmt.Errorf("%w: %s", ErrActionNotAllowed, reason)
	}

	label := NormalizeActionName(name)
	var res ActionResult
	if action, known := ResolveAction(s.domain, name); known {
		label = string(action)
		res = s.dispatch(action, params)
	} else {
		res = failedResult(unknownAction(s.domain, name))
	}

	s.recordOutcome(res.Success)
	s.steps++

	out := StepResult{
		Success: res.Success,
		Action:  label,
		Result:  res,
		Entropy: round4(s.entropy),
		Step:    s.steps,
	}
	out.SimState = s.State()
	if s.goal != nil {
		g := s.goal.Evaluate(out.SimState, res)
		out.Goal = &g
		if g.Achieved {
			s.status = StatusCompleted
		}
	}
	out.Status = s.status

	logrus.Debugf("[session %s] step %d %s success=%v entropy=%.4f", s.id, s.steps, label, res.Success, out.Entropy)
	if s.observer != nil {
		s.observer.ObserveStep(s.id, s.domain, out)
	}
	return out, nil
}

func (s *Session) dispatch(action Action, params Params) ActionResult {
	switch s.domain {
	case DomainOS:
		return applyMemory(s.memory, action, params)
	case DomainDBMS:
		return applyDBMS(s.dbms, action, params)
	}
	return failedResult(unknownAction(s.domain, string(action)))
}

// recordOutcome pushes the step outcome into the window and moves entropy by
// the controller's output.
func (s *Session) recordOutcome(success bool) {
	s.window = append(s.window, success)
	if len(s.window) > s.windowSize {
		s.window = slices.Delete(s.window, 0, len(s.window)-s.windowSize)
	}
	delta := s.controller.Update(windowRate(s.window), 1)
	s.entropy = clamp(s.entropy+delta, 0, 1)
}

// windowRate is the fraction of successes in the window.
func windowRate(window []bool) float64 {
	if len(window) == 0 {
		return 0
	}
	xs := make([]float64, len(window))
	for i, ok := range window {
		if ok {
			xs[i] = 1
		}
	}
	return stat.Mean(xs, nil)
}

// Complete marks an active session as completed.
func (s *Session) Complete() error {
	return s.finish(StatusCompleted)
}

// Abandon marks an active session as abandoned.
func (s *Session) Abandon() error {
	return s.finish(StatusAbandoned)
}

func (s *Session) finish(to SessionStatus) error {
	if s.status != StatusActive {
		return fmt.Errorf("%w: session %s is %s", ErrSessionNotActive, s.id, s.status)
	}
	s.status = to
	logrus.Debugf("[session %s] %s after %d steps", s.id, to, s.steps)
	return nil
}

// State returns the observable simulation state.
func (s *Session) State() State {
	st := State{Domain: s.domain, Entropy: s.entropy, Steps: s.steps}
	switch s.domain {
	case DomainOS:
		st.Memory = memoryState(s.memory)
	case DomainDBMS:
		st.DBMS = dbmsState(s.dbms)
	}
	return st
}
