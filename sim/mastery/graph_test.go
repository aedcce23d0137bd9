package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func osGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph([]Competency{
		{Slug: "paging", Domain: "OS", DAGLevel: 1, Prerequisites: []string{"memory_basics"}},
		{Slug: "memory_basics", Domain: "OS", DAGLevel: 0},
		{Slug: "fragmentation", Domain: "OS", DAGLevel: 1, Prerequisites: []string{"memory_basics"}},
		{Slug: "virtual_memory", Domain: "OS", DAGLevel: 2, Prerequisites: []string{"paging"}},
		{Slug: "btree", Domain: "DBMS", DAGLevel: 0},
	})
	require.NoError(t, err)
	return g
}

func TestNewGraph_OrdersByLevelThenSlug(t *testing.T) {
	g := osGraph(t)
	var slugs []string
	for _, c := range g.Competencies("os") {
		slugs = append(slugs, c.Slug)
	}
	assert.Equal(t, []string{"memory_basics", "fragmentation", "paging", "virtual_memory"}, slugs)
	assert.Len(t, g.Competencies(""), 5)
	assert.Equal(t, 5, g.Len())

	c, ok := g.Get("paging")
	require.True(t, ok)
	assert.Equal(t, 1, c.DAGLevel)
	_, ok = g.Get("nope")
	assert.False(t, ok)
}

func TestNewGraph_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		comps []Competency
	}{
		{"duplicate", []Competency{{Slug: "a", Domain: "OS"}, {Slug: "a", Domain: "OS"}}},
		{"unknown prerequisite", []Competency{{Slug: "a", Domain: "OS", Prerequisites: []string{"b"}}}},
		{"self cycle", []Competency{{Slug: "a", Domain: "OS", Prerequisites: []string{"a"}}}},
		{"cycle", []Competency{
			{Slug: "a", Domain: "OS", Prerequisites: []string{"c"}},
			{Slug: "b", Domain: "OS", Prerequisites: []string{"a"}},
			{Slug: "c", Domain: "OS", Prerequisites: []string{"b"}},
		}},
		{"missing slug", []Competency{{Domain: "OS"}}},
		{"negative level", []Competency{{Slug: "a", Domain: "OS", DAGLevel: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.comps)
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestRecommendNext(t *testing.T) {
	m := NewModel(DefaultParams())
	g := osGraph(t)

	tests := []struct {
		name    string
		mastery map[string]float64
		domain  string
		want    string
		wantOK  bool
	}{
		{"nothing observed picks root", map[string]float64{}, "OS", "memory_basics", true},
		{"lowest mastery wins", map[string]float64{"memory_basics": 0.9, "paging": 0.6, "fragmentation": 0.4}, "OS", "fragmentation", true},
		{"equal mastery falls back to slug", map[string]float64{"memory_basics": 0.9, "paging": 0.5, "fragmentation": 0.5}, "OS", "fragmentation", true},
		{"locked competencies skipped", map[string]float64{"memory_basics": 0.9, "paging": 0.5, "fragmentation": 0.85}, "OS", "paging", true},
		{"unlocked deeper level", map[string]float64{"memory_basics": 0.9, "paging": 0.81, "fragmentation": 0.85}, "OS", "virtual_memory", true},
		{"everything mastered", map[string]float64{"memory_basics": 0.9, "paging": 0.9, "fragmentation": 0.9, "virtual_memory": 0.95}, "OS", "", false},
		{"domain filter", map[string]float64{}, "DBMS", "btree", true},
		{"equal mastery prefers lower level", map[string]float64{"memory_basics": 0.9, "paging": 0.3, "fragmentation": 0.9}, "", "btree", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.RecommendNext(tt.mastery, g, tt.domain)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
