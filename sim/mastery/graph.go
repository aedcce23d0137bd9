package mastery

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/flux-sim/flux-sim/sim"
)

// ErrInvalidGraph marks competency graphs with duplicate slugs, dangling
// prerequisites or cycles.
var ErrInvalidGraph = errors.New("invalid competency graph")

// Competency is one node of the curriculum DAG.
type Competency struct {
	Slug          string   `yaml:"slug" json:"slug" validate:"required"`
	Name          string   `yaml:"name" json:"name"`
	Domain        string   `yaml:"domain" json:"domain" validate:"required"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	DAGLevel      int      `yaml:"dag_level" json:"dag_level" validate:"gte=0"`
	Prerequisites []string `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
}

// Graph is a validated, acyclic set of competencies ordered by DAG level
// then slug.
type Graph struct {
	nodes  []Competency
	bySlug map[string]int
}

// NewGraph validates comps and builds the graph.
func NewGraph(comps []Competency) (*Graph, error) {
	g := &Graph{
		nodes:  slices.Clone(comps),
		bySlug: make(map[string]int, len(comps)),
	}
	for i, c := range g.nodes {
		if err := sim.Validator().Struct(c); err != nil {
			return nil, fmt.Errorf("%w: competency %d: %v", ErrInvalidGraph, i, err)
		}
	}
	slices.SortStableFunc(g.nodes, func(a, b Competency) int {
		return cmp.Or(cmp.Compare(a.DAGLevel, b.DAGLevel), cmp.Compare(a.Slug, b.Slug))
	})
	for i, c := range g.nodes {
		if _, dup := g.bySlug[c.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate competency %q", ErrInvalidGraph, c.Slug)
		}
		g.bySlug[c.Slug] = i
	}
	for _, c := range g.nodes {
		for _, p := range c.Prerequisites {
			if _, ok := g.bySlug[p]; !ok {
				return nil, fmt.Errorf("%w: %q requires unknown competency %q", ErrInvalidGraph, c.Slug, p)
			}
		}
	}
	if cycle := g.findCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: prerequisite cycle %s", ErrInvalidGraph, strings.Join(cycle, " -> "))
	}
	return g, nil
}

// findCycle returns one prerequisite cycle, or nil.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(g.nodes))
	var stack []string
	var visit func(i int) []string
	visit = func(i int) []string {
		state[i] = onStack
		stack = append(stack, g.nodes[i].Slug)
		for _, p := range g.nodes[i].Prerequisites {
			j := g.bySlug[p]
			switch state[j] {
			case onStack:
				start := slices.Index(stack, p)
				return append(slices.Clone(stack[start:]), p)
			case unvisited:
				if c := visit(j); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
		return nil
	}
	for i := range g.nodes {
		if state[i] == unvisited {
			if c := visit(i); c != nil {
				return c
			}
		}
	}
	return nil
}

// Get looks up a competency by slug.
func (g *Graph) Get(slug string) (Competency, bool) {
	i, ok := g.bySlug[slug]
	if !ok {
		return Competency{}, false
	}
	return g.nodes[i], true
}

// Competencies returns the nodes of a domain in DAG order. An empty domain
// returns every node.
func (g *Graph) Competencies(domain string) []Competency {
	var out []Competency
	for _, c := range g.nodes {
		if domain == "" || strings.EqualFold(c.Domain, domain) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of competencies.
func (g *Graph) Len() int { return len(g.nodes) }

// RecommendNext picks the next competency to study: among unmastered
// competencies whose prerequisites are all mastered, the one with the lowest
// mastery, then lower DAG level, then slug. Competencies absent from mastery
// count as the prior. ok is false when nothing qualifies.
func (m *Model) RecommendNext(mastery map[string]float64, g *Graph, domain string) (slug string, ok bool) {
	type candidate struct {
		p     float64
		level int
		slug  string
	}
	var best *candidate
	for _, c := range g.Competencies(domain) {
		if !m.prerequisitesMastered(mastery, c) {
			continue
		}
		p, seen := mastery[c.Slug]
		if !seen {
			p = m.params.Prior
		}
		if m.Mastered(p) {
			continue
		}
		cand := candidate{p: p, level: c.DAGLevel, slug: c.Slug}
		if best == nil || cmp.Or(
			cmp.Compare(cand.p, best.p),
			cmp.Compare(cand.level, best.level),
			cmp.Compare(cand.slug, best.slug),
		) < 0 {
			best = &cand
		}
	}
	if best == nil {
		return "", false
	}
	return best.slug, true
}

func (m *Model) prerequisitesMastered(mastery map[string]float64, c Competency) bool {
	for _, p := range c.Prerequisites {
		v, ok := mastery[p]
		if !ok || !m.Mastered(v) {
			return false
		}
	}
	return true
}
