package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flux-sim/flux-sim/sim"
	"github.com/flux-sim/flux-sim/sim/mastery"
	"github.com/flux-sim/flux-sim/sim/policy"
)

// Scenario is a scripted learner session read from YAML.
type Scenario struct {
	Name         string           `yaml:"name"`
	Domain       string           `yaml:"domain"`
	Challenge    string           `yaml:"challenge"`  // hint content key
	Competency   string           `yaml:"competency"` // mastery record updated by the outcomes
	InitialState sim.InitialState `yaml:"initial_state"`
	Goal         *sim.MetricGoal  `yaml:"goal"`
	Steps        []ScenarioStep   `yaml:"steps"`
}

// ScenarioStep is one typed command.
type ScenarioStep struct {
	Action string     `yaml:"action"`
	Params sim.Params `yaml:"params"`
}

// LoadScenario reads a scenario file. The name defaults to the file's base
// name without extension.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	if err := decodeStrict(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if _, err := sim.ParseDomain(sc.Domain); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario %s has no steps", sc.Name)
	}
	for i, st := range sc.Steps {
		if strings.TrimSpace(st.Action) == "" {
			return Scenario{}, fmt.Errorf("scenario %s: step %d has no action", sc.Name, i+1)
		}
	}
	return sc, nil
}

// Content is the --content file: the competency graph and optional hint
// tables replacing the built-in ones.
type Content struct {
	Competencies []mastery.Competency   `yaml:"competencies"`
	Hints        *policy.StaticRegistry `yaml:"hints"`
}

// LoadContent reads a content file into a graph and hint registry. An empty
// path yields an empty graph and the built-in hints.
func LoadContent(path string) (*mastery.Graph, policy.ContentRegistry, error) {
	var content Content
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading content: %w", err)
		}
		if err := decodeStrict(data, &content); err != nil {
			return nil, nil, fmt.Errorf("parsing content %s: %w", path, err)
		}
	}
	graph, err := mastery.NewGraph(content.Competencies)
	if err != nil {
		return nil, nil, err
	}
	if content.Hints == nil {
		return graph, policy.DefaultRegistry(), nil
	}
	if err := sim.Validator().Struct(content.Hints); err != nil {
		return nil, nil, fmt.Errorf("invalid hint content: %w", err)
	}
	return graph, content.Hints, nil
}

// LoadMastery reads a slug → p_mastery YAML map.
func LoadMastery(path string) (map[string]float64, error) {
	out := make(map[string]float64)
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mastery: %w", err)
	}
	if err := decodeStrict(data, &out); err != nil {
		return nil, fmt.Errorf("parsing mastery %s: %w", path, err)
	}
	for slug, p := range out {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("mastery %s: %q = %v is not a probability", path, slug, p)
		}
	}
	return out, nil
}
