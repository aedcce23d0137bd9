package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flux-sim/flux-sim/sim"
	"github.com/flux-sim/flux-sim/sim/mastery"
	"github.com/flux-sim/flux-sim/sim/policy"
	"github.com/flux-sim/flux-sim/sim/trace"
)

// Config is the full --config file. Every section starts from its defaults
// and the file overlays it. All top-level sections must be listed to satisfy
// KnownFields(true) strict parsing.
type Config struct {
	Engine     sim.EngineConfig `yaml:"engine"`
	Mastery    mastery.Params   `yaml:"mastery"`
	Policy     policy.Config    `yaml:"policy"`
	TraceLevel string           `yaml:"trace_level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Engine:     sim.DefaultEngineConfig(),
		Mastery:    mastery.DefaultParams(),
		Policy:     policy.DefaultConfig(),
		TraceLevel: string(trace.TraceLevelSteps),
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Mastery.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("invalid trace_level %q; valid levels: [none, steps]", c.TraceLevel)
	}
	return nil
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
// Scalars and structs overlay field by field; policy.hint_triggers, when
// present, replaces the whole default table.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	// yaml.v3 merges into an existing map; a listed hint_triggers table
	// replaces the defaults instead.
	defaultTriggers := cfg.Policy.HintTriggers
	cfg.Policy.HintTriggers = nil
	if err := decodeStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Policy.HintTriggers == nil {
		cfg.Policy.HintTriggers = defaultTriggers
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// decodeStrict parses YAML rejecting unknown keys (typos must cause errors).
// An empty document leaves out untouched.
func decodeStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
