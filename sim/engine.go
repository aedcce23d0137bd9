package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Engine creates and restores sessions under one configuration. It holds no
// per-session state, so one Engine may serve many goroutines.
type Engine struct {
	cfg      EngineConfig
	observer StepObserver
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithObserver attaches an observer to every session the engine creates.
func WithObserver(o StepObserver) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine. Panics if cfg fails validation; callers
// loading config from files validate first.
func NewEngine(cfg EngineConfig, opts ...EngineOption) *Engine {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewEngine: %v", err))
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig { return e.cfg }

// SessionOption customizes a single session.
type SessionOption func(*Session)

// WithGoal completes the session once g is achieved.
func WithGoal(g GoalEvaluator) SessionOption {
	return func(s *Session) { s.goal = g }
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// newSession wires the pieces shared by StartSession and Restore.
func (e *Engine) newSession(domain Domain, initial InitialState, opts []SessionOption) *Session {
	s := &Session{
		id:         uuid.NewString(),
		domain:     domain,
		status:     StatusActive,
		window:     []bool{},
		windowSize: e.cfg.WindowSize,
		controller: NewDifficultyController(e.cfg.PID, initial.setpoint(e.cfg)),
		admission:  NewAdmissionPolicy(domain, initial.AllowedCommands),
		observer:   e.observer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession creates a fresh session for the domain, seeded from the
// challenge's initial state. Unknown domains, unknown strategies and seed
// operations that fail are reported as ErrMalformedState.
func (e *Engine) StartSession(domain string, initial InitialState, opts ...SessionOption) (*Session, error) {
	d, err := ParseDomain(domain)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(initial); err != nil {
		return nil, asMalformed(err)
	}

	s := e.newSession(d, initial, opts)
	s.entropy = e.cfg.DefaultEntropy
	if initial.StartingEntropy != nil {
		s.entropy = *initial.StartingEntropy
	}

	switch d {
	case DomainOS:
		s.memory, err = e.seedMemory(initial)
	case DomainDBMS:
		s.dbms, err = e.seedDBMS(initial)
	}
	if err != nil {
		return nil, err
	}
	logrus.Debugf("[session %s] started %s session, entropy=%.4f setpoint=%.2f", s.id, d, s.entropy, s.controller.Setpoint())
	return s, nil
}

func (e *Engine) seedMemory(initial InitialState) (*MemorySimulator, error) {
	total := e.cfg.Memory.TotalMemory
	if initial.TotalMemory > 0 {
		total = initial.TotalMemory
	}
	name := e.cfg.Memory.Strategy
	if initial.Strategy != "" {
		name = initial.Strategy
	}
	strategy, err := ParseAllocationStrategy(name)
	if err != nil {
		return nil, err
	}
	m := NewMemorySimulator(total, strategy)
	for i, pre := range initial.PreAllocated {
		if _, err := m.Allocate(pre.Size, pre.PID); err != nil {
			return nil, malformed(fmt.Sprintf("pre_allocated[%d]", i), "%v", err)
		}
	}
	for i, addr := range initial.PreFreed {
		if _, err := m.Free(addr); err != nil {
			return nil, malformed(fmt.Sprintf("pre_freed[%d]", i), "%v", err)
		}
	}
	return m, nil
}

func (e *Engine) seedDBMS(initial InitialState) (*QueryCostSimulator, error) {
	rows := e.cfg.DBMS.TotalRows
	if initial.TotalRows != nil {
		rows = *initial.TotalRows
	}
	order := e.cfg.DBMS.BTreeOrder
	if initial.BTreeOrder > 0 {
		order = initial.BTreeOrder
	}
	q := NewQueryCostSimulator(rows, order)
	for i, key := range initial.PreInsertedKeys {
		if _, err := q.Insert(key); err != nil {
			return nil, malformed(fmt.Sprintf("pre_inserted_keys[%d]", i), "%v", err)
		}
	}
	if initial.HasPrimaryIndex != nil {
		q.hasPrimaryIndex = *initial.HasPrimaryIndex
	}
	if initial.HasRangeIndex {
		q.CreateIndex("range")
	}
	return q, nil
}

// Restore rebuilds a session from a snapshot. initial supplies what the
// snapshot does not carry: the target success rate and allowed commands.
// Every structural problem is reported as ErrMalformedState and no session
// is returned.
func (e *Engine) Restore(snap Snapshot, initial InitialState, opts ...SessionOption) (*Session, error) {
	domain, status, err := checkSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(initial); err != nil {
		return nil, asMalformed(err)
	}

	// an explicit WithSessionID in opts still wins
	opts = append([]SessionOption{WithSessionID(snap.SessionID)}, opts...)
	s := e.newSession(domain, initial, opts)
	s.status = status
	s.entropy = *snap.Entropy
	s.steps = *snap.Steps
	s.window = trimWindow(s.id, snap.SuccessWindow, e.cfg.WindowSize)
	s.controller.restore(*snap.PIDIntegral, *snap.PIDLastError)

	switch domain {
	case DomainOS:
		s.memory, err = restoreMemory(snap.Memory)
	case DomainDBMS:
		s.dbms, err = restoreDBMS(snap.DBMS)
	}
	if err != nil {
		return nil, err
	}
	logrus.Debugf("[session %s] restored %s session at step %d", s.id, domain, s.steps)
	return s, nil
}

// RestoreJSON decodes and restores a snapshot in one call.
func (e *Engine) RestoreJSON(data []byte, initial InitialState, opts ...SessionOption) (*Session, error) {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return e.Restore(snap, initial, opts...)
}
