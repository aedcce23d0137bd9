// Package sim provides the session engine behind the adaptive OS and DBMS
// challenges.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - session.go: Session lifecycle (active → completed/abandoned) and ApplyAction
//   - action.go: Domains, the canonical action table and its aliases
//   - snapshot.go: The versioned snapshot schema and restore validation
//
// # Architecture
//
// A Session owns exactly one simulator, selected by its domain:
//   - MemorySimulator (memory.go): contiguous allocation with first/best/worst fit
//   - QueryCostSimulator (dbms.go): a sorted KeySet plus index flags and a cost model
//
// Every admitted step feeds a rolling success window into a
// DifficultyController (pid.go) whose clamped output moves the session
// entropy. Engine (engine.go) starts and restores sessions from an
// InitialState and an EngineConfig.
//
// Sub-packages build on the step stream:
//   - sim/trace/: per-session step records and summaries
//   - sim/mastery/: Bayesian Knowledge Tracing and the competency graph
//   - sim/policy/: difficulty, hints, challenge format and weak-spot diagnostics
//   - sim/metrics/: Prometheus step observer
//
// # Errors
//
// Learner mistakes are results, not errors: a failed operation yields a
// StepResult with Success=false and a FailureKind. Go errors are reserved for
// caller contract violations (ErrSessionNotActive, ErrActionNotAllowed) and
// corrupt input (ErrMalformedState).
//
// # Concurrency
//
// Sessions share nothing; different sessions may step in parallel. A single
// session must not be stepped concurrently.
package sim
