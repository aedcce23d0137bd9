package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flux-sim/flux-sim/sim"
)

// Hint is one rung of a challenge's hint ladder. Level 1 nudges, level 3
// spells out the solution.
type Hint struct {
	Level            int    `yaml:"level" json:"level" validate:"gte=1,lte=3"`
	Message          string `yaml:"message" json:"message" validate:"required"`
	ConceptReference string `yaml:"concept_reference,omitempty" json:"concept_reference,omitempty"`
	VisualCue        string `yaml:"visual_cue,omitempty" json:"visual_cue,omitempty"`
}

// ContentRegistry supplies hint content to the Engine.
type ContentRegistry interface {
	// ChallengeHints returns the hint table of a challenge; ok is false when
	// the challenge has none.
	ChallengeHints(challenge string) (hints []Hint, ok bool)
	// GenericHint returns the fallback hint for a level.
	GenericHint(level int) (Hint, bool)
}

// StaticRegistry is an in-memory ContentRegistry, usually loaded from YAML.
type StaticRegistry struct {
	Challenges map[string][]Hint `yaml:"challenges" validate:"dive,dive"`
	Generic    []Hint            `yaml:"generic" validate:"dive"`
}

// ChallengeHints implements ContentRegistry.
func (r *StaticRegistry) ChallengeHints(challenge string) ([]Hint, bool) {
	hints, ok := r.Challenges[challenge]
	return hints, ok && len(hints) > 0
}

// GenericHint implements ContentRegistry.
func (r *StaticRegistry) GenericHint(level int) (Hint, bool) {
	return hintAt(r.Generic, level)
}

func hintAt(hints []Hint, level int) (Hint, bool) {
	for _, h := range hints {
		if h.Level == level {
			return h, true
		}
	}
	return Hint{}, false
}

//go:embed hints.yaml
var builtinHints []byte

// DefaultRegistry returns the built-in hint content.
func DefaultRegistry() *StaticRegistry {
	r, err := ParseRegistry(builtinHints)
	if err != nil {
		panic(fmt.Sprintf("built-in hint content: %v", err))
	}
	return r
}

// ParseRegistry decodes hint content strictly: unknown keys are errors.
func ParseRegistry(data []byte) (*StaticRegistry, error) {
	r := &StaticRegistry{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing hint content: %w", err)
	}
	if err := sim.Validator().Struct(r); err != nil {
		return nil, fmt.Errorf("invalid hint content: %w", err)
	}
	return r, nil
}

// LoadRegistry reads hint content from a YAML file.
func LoadRegistry(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hint content: %w", err)
	}
	return ParseRegistry(data)
}
