package sim

import (
	"fmt"
)

// MemoryDefaults configures OS sessions whose challenge omits them.
type MemoryDefaults struct {
	TotalMemory int64  `yaml:"total_memory" validate:"gt=0"`
	Strategy    string `yaml:"strategy" validate:"strategy"`
}

// DBMSDefaults configures DBMS sessions whose challenge omits them.
type DBMSDefaults struct {
	TotalRows  int64 `yaml:"total_rows" validate:"gte=0"`
	BTreeOrder int   `yaml:"btree_order" validate:"gte=2"`
}

// EngineConfig groups everything the session orchestrator needs beyond the
// challenge's initial state.
type EngineConfig struct {
	WindowSize      int            `yaml:"window_size" validate:"gte=1"` // rolling success window bound
	PID             PIDConfig      `yaml:"pid"`
	DefaultSetpoint float64        `yaml:"default_setpoint" validate:"gte=0,lte=1"` // used when targetSuccessRate is absent
	DefaultEntropy  float64        `yaml:"default_entropy" validate:"gte=0,lte=1"`  // used when startingEntropy is absent
	Memory          MemoryDefaults `yaml:"memory"`
	DBMS            DBMSDefaults   `yaml:"dbms"`
}

// DefaultEngineConfig returns the stock configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WindowSize:      10,
		PID:             DefaultPIDConfig(),
		DefaultSetpoint: 0.7,
		DefaultEntropy:  0.5,
		Memory:          MemoryDefaults{TotalMemory: 1024, Strategy: string(FirstFit)},
		DBMS:            DBMSDefaults{TotalRows: 10_000, BTreeOrder: 4},
	}
}

// Validate checks ranges of every field.
func (c EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return nil
}

// PreAllocation seeds an OS session with an allocated block.
type PreAllocation struct {
	Size int64  `json:"size" yaml:"size" validate:"gt=0"`
	PID  *int64 `json:"pid,omitempty" yaml:"pid,omitempty"`
}

// InitialState is the challenge metadata a session starts from. Field names
// follow the challenge content files.
type InitialState struct {
	StartingEntropy   *float64 `json:"startingEntropy,omitempty" yaml:"startingEntropy,omitempty" validate:"omitempty,gte=0,lte=1"`
	TargetSuccessRate *float64 `json:"targetSuccessRate,omitempty" yaml:"targetSuccessRate,omitempty"`
	AllowedCommands   []string `json:"allowedCommands,omitempty" yaml:"allowedCommands,omitempty"`

	// OS
	Strategy     string          `json:"strategy,omitempty" yaml:"strategy,omitempty" validate:"omitempty,strategy"`
	TotalMemory  int64           `json:"totalMemory,omitempty" yaml:"totalMemory,omitempty" validate:"gte=0"`
	PreAllocated []PreAllocation `json:"pre_allocated,omitempty" yaml:"pre_allocated,omitempty" validate:"dive"`
	PreFreed     []int64         `json:"pre_freed,omitempty" yaml:"pre_freed,omitempty"`

	// DBMS
	TotalRows       *int64  `json:"totalRows,omitempty" yaml:"totalRows,omitempty" validate:"omitempty,gte=0"`
	BTreeOrder      int     `json:"btreeOrder,omitempty" yaml:"btreeOrder,omitempty" validate:"omitempty,gte=2"`
	PreInsertedKeys []int64 `json:"pre_inserted_keys,omitempty" yaml:"pre_inserted_keys,omitempty"`
	HasRangeIndex   bool    `json:"has_range_index,omitempty" yaml:"has_range_index,omitempty"`
	HasPrimaryIndex *bool   `json:"has_primary_index,omitempty" yaml:"has_primary_index,omitempty"`
}

// setpoint returns the challenge's target success rate or the configured default.
func (s InitialState) setpoint(cfg EngineConfig) float64 {
	if s.TargetSuccessRate != nil {
		return *s.TargetSuccessRate
	}
	return cfg.DefaultSetpoint
}
