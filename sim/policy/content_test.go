package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_BuiltinContent(t *testing.T) {
	reg := DefaultRegistry()
	for _, slug := range []string{"os_mem_01", "os_page_01", "dbms_btree_01"} {
		hints, ok := reg.ChallengeHints(slug)
		require.True(t, ok, slug)
		assert.Len(t, hints, 3)
	}
	for level := 1; level <= 3; level++ {
		h, ok := reg.GenericHint(level)
		require.True(t, ok)
		assert.Equal(t, level, h.Level)
	}
	_, ok := reg.GenericHint(4)
	assert.False(t, ok)
}

func TestParseRegistry_Strict(t *testing.T) {
	_, err := ParseRegistry([]byte("challenges: {}\nunknown: 1\n"))
	assert.Error(t, err)

	_, err = ParseRegistry([]byte("generic:\n  - level: 0\n    message: hi\n"))
	assert.Error(t, err, "levels start at 1")

	_, err = ParseRegistry([]byte("generic:\n  - level: 4\n    message: hi\n"))
	assert.Error(t, err, "levels stop at 3")

	_, err = ParseRegistry([]byte("challenges:\n  c1:\n    - level: 1\n"))
	assert.Error(t, err, "message is required")
}

func TestParseRegistry_EmptyDocument(t *testing.T) {
	reg, err := ParseRegistry(nil)
	require.NoError(t, err)
	_, ok := reg.ChallengeHints("anything")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
challenges:
  mem_custom:
    - level: 1
      message: "free the big block"
      visual_cue: highlight_free_frames
`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	hints, ok := reg.ChallengeHints("mem_custom")
	require.True(t, ok)
	assert.Equal(t, "highlight_free_frames", hints[0].VisualCue)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
