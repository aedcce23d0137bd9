package sim

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Snapshot is the persisted form of a session. Pointer fields are required:
// a nil pointer means the field was missing from the input.
type Snapshot struct {
	Version   int           `json:"version" validate:"gte=0"`
	SessionID string        `json:"sessionId,omitempty"`
	Status    SessionStatus `json:"status,omitempty"`
	Domain    string        `json:"domain" validate:"required"`
	Entropy   *float64      `json:"entropy" validate:"required,gte=0,lte=1"`
	Steps     *int          `json:"steps" validate:"required,gte=0"`
	Memory    *MemoryState  `json:"memory,omitempty"`
	DBMS      *DBMSState    `json:"dbms,omitempty"`

	PIDIntegral   *float64 `json:"_pid_integral" validate:"required,gte=-1,lte=1"`
	PIDLastError  *float64 `json:"_pid_last_error" validate:"required"`
	SuccessWindow []bool   `json:"_success_window" validate:"required"`
}

// Snapshot captures the full session state. Restoring it yields a session
// whose every subsequent step matches this one's.
func (s *Session) Snapshot() Snapshot {
	st := s.State()
	entropy, steps := s.entropy, s.steps
	integral, lastErr := s.controller.Integral(), s.controller.LastError()
	window := append([]bool{}, s.window...)
	return Snapshot{
		Version:       SnapshotVersion,
		SessionID:     s.id,
		Status:        s.status,
		Domain:        string(s.domain),
		Entropy:       &entropy,
		Steps:         &steps,
		Memory:        st.Memory,
		DBMS:          st.DBMS,
		PIDIntegral:   &integral,
		PIDLastError:  &lastErr,
		SuccessWindow: window,
	}
}

// MarshalSnapshot encodes the session snapshot as JSON.
func (s *Session) MarshalSnapshot() ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses JSON into a Snapshot. Syntax errors are reported as
// malformed state; field-level checks happen in Engine.Restore.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, malformed("", "decoding snapshot: %v", err)
	}
	return snap, nil
}

// checkSnapshot validates everything that does not need the engine config.
func checkSnapshot(snap Snapshot) (Domain, SessionStatus, error) {
	if err := validate.Struct(snap); err != nil {
		return "", "", asMalformed(err)
	}
	if snap.Version > SnapshotVersion {
		return "", "", malformed("version", "unsupported snapshot version %d (max %d)", snap.Version, SnapshotVersion)
	}
	domain, err := ParseDomain(snap.Domain)
	if err != nil {
		return "", "", err
	}
	status := snap.Status
	if status == "" {
		status = StatusActive
	}
	if !ValidSessionStatuses[status] {
		return "", "", malformed("status", "unknown session status %q", snap.Status)
	}
	switch {
	case domain == DomainOS && snap.Memory == nil:
		return "", "", malformed("memory", "required for OS sessions")
	case domain == DomainDBMS && snap.DBMS == nil:
		return "", "", malformed("dbms", "required for DBMS sessions")
	}
	return domain, status, nil
}

// trimWindow keeps the newest size outcomes.
func trimWindow(id string, window []bool, size int) []bool {
	if len(window) <= size {
		return append([]bool{}, window...)
	}
	logrus.Warnf("[session %s] snapshot window holds %d outcomes, keeping newest %d", id, len(window), size)
	return append([]bool{}, window[len(window)-size:]...)
}
