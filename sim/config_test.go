package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfig_IsValid(t *testing.T) {
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.WindowSize)
	assert.Equal(t, PIDConfig{Kp: 0.5, Ki: 0.1, Kd: 0.05, OutputMin: -0.2, OutputMax: 0.2}, cfg.PID)
}

func TestEngineConfig_Validate_RejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineConfig)
	}{
		{"zero window", func(c *EngineConfig) { c.WindowSize = 0 }},
		{"setpoint above one", func(c *EngineConfig) { c.DefaultSetpoint = 1.2 }},
		{"negative entropy", func(c *EngineConfig) { c.DefaultEntropy = -0.1 }},
		{"inverted output bounds", func(c *EngineConfig) { c.PID.OutputMin, c.PID.OutputMax = 0.2, -0.2 }},
		{"zero memory", func(c *EngineConfig) { c.Memory.TotalMemory = 0 }},
		{"unknown strategy", func(c *EngineConfig) { c.Memory.Strategy = "NEXT_FIT" }},
		{"order below two", func(c *EngineConfig) { c.DBMS.BTreeOrder = 1 }},
		{"negative rows", func(c *EngineConfig) { c.DBMS.TotalRows = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			assert.Panics(t, func() { NewEngine(cfg) })
		})
	}
}

func TestEngine_UsesConfiguredDefaults(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DefaultEntropy = 0.25
	cfg.DefaultSetpoint = 0.6
	cfg.WindowSize = 3
	cfg.Memory = MemoryDefaults{TotalMemory: 64, Strategy: "worst_fit"}
	e := NewEngine(cfg)

	s, err := e.StartSession("OS", InitialState{})
	require.NoError(t, err)
	assert.Equal(t, 0.25, s.Entropy())
	assert.Equal(t, 0.6, s.Controller().Setpoint())
	assert.Equal(t, int64(64), s.Memory().TotalMemory())
	assert.Equal(t, WorstFit, s.Memory().Strategy())

	for i := 0; i < 5; i++ {
		_, err := s.ApplyAction("analyze", nil)
		require.NoError(t, err)
	}
	assert.Len(t, s.Window(), 3)
}

func TestValidator_StrategyRuleRegistered(t *testing.T) {
	assert.NoError(t, Validator().Var("best_fit", "strategy"))
	assert.Error(t, Validator().Var("NEXT_FIT", "strategy"))
}
