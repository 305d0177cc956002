package patternstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

func TestLoadOrSeedCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "patterns.json")

	sets, err := LoadOrSeed(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.Len(t, sets, 2)
	assert.Equal(t, "Default", sets[0].Name)
	assert.Equal(t, "Custom", sets[1].Name)
	assert.Equal(t, patternmatch.LiteralSource("TODO"), sets[0].Patterns[0].Source)
	assert.Equal(t, "This is a fixme item", sets[0].Patterns[1].Description)
	assert.Empty(t, sets[0].Prefix)
	assert.Empty(t, sets[0].Postfix)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"sets\": [")
}

func TestLoadOrSeedKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	content := `{"sets":[{"name":"Only","patternPrefix":"//\\s*","patterns":[{"pattern":"/hack\\d*/i","description":"hack"},{"regex":"xx+","pattern":"ignored","description":"xs"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sets, err := LoadOrSeed(path)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	set := sets[0]
	assert.Equal(t, `//\s*`, set.Prefix)
	assert.Equal(t, patternmatch.RegexSource(`hack\d*`), set.Patterns[0].Source)
	assert.Equal(t, patternmatch.RegexSource("xx+"), set.Patterns[1].Source)
}

func TestLoadEmptySets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sets":[]}`), 0o644))

	sets, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sets": [`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := `
sets:
  - name: Review
    patternPostfix: ":"
    patterns:
      - pattern: XXX
        description: needs review
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sets, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, ":", sets[0].Postfix)
	assert.Equal(t, "needs review", sets[0].Patterns[0].Description)
}

func TestSeedRoundTripsEveryFormat(t *testing.T) {
	for _, name := range []string{"p.json", "p.yaml", "p.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			sets, err := LoadOrSeed(path)
			require.NoError(t, err)
			assert.Equal(t, DefaultFile().PatternSets(), sets)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
