package sim

import (
	"errors"
	"fmt"
)

// FailureKind classifies a recoverable learner mistake.
type FailureKind string

const (
	FailureInvalidParameter  FailureKind = "invalid_parameter"
	FailureNoContiguousBlock FailureKind = "no_contiguous_block"
	FailureNotAllocated      FailureKind = "not_allocated"
	FailureDuplicateKey      FailureKind = "duplicate_key"
	FailureKeyNotFound       FailureKind = "key_not_found"
	FailureUnknownAction     FailureKind = "unknown_action"
)

// ActionError is a domain-expected failure of a simulator operation.
// It never indicates corrupted state: callers branch on it routinely and
// the session reports it as an unsuccessful step.
type ActionError struct {
	Kind    FailureKind
	Message string
	Details map[string]any // extra context, e.g. total free memory on a failed allocation
}

func (e *ActionError) Error() string {
	return e.Message
}

func newActionError(kind FailureKind, format string, args ...any) *ActionError {
	return &ActionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrMalformedState marks structural failures: snapshots or initial states
// that cannot describe a valid simulation. Match with errors.Is.
var ErrMalformedState = errors.New("malformed state")

// MalformedStateError reports which field of a snapshot or initial state is broken.
type MalformedStateError struct {
	Field  string
	Reason string
}

func (e *MalformedStateError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed state: %s", e.Reason)
	}
	return fmt.Sprintf("malformed state: %s: %s", e.Field, e.Reason)
}

func (e *MalformedStateError) Unwrap() error {
	return ErrMalformedState
}

func malformed(field, format string, args ...any) error {
	return &MalformedStateError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var (
	// ErrSessionNotActive is returned when stepping a completed or abandoned session.
	ErrSessionNotActive = errors.New("session is not active")
	// ErrActionNotAllowed is returned when the challenge's admission policy rejects an action.
	ErrActionNotAllowed = errors.New("action not allowed in this challenge")
)
