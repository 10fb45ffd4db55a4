package recordstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
diagnostic_nodes:
  - id: b1
    category: battery
    question: Is the battery older than 4 years?
    is_start: true
    branch_targets: [b2, b3]
  - id: b2
    category: battery
    is_terminal: true
    result_text: "# Battery end of life"
cases:
  - title: Sulfated bank
    category: battery
    tools: [hydrometer]
`

func TestParseFixtures(t *testing.T) {
	store, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)

	nodes, err := store.QueryRecords(context.Background(), "diagnostic_nodes", Filter{"category": "battery"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "b1", nodes[0].String("id"))
	assert.True(t, nodes[0].Bool("is_start"))
	assert.Equal(t, []string{"b2", "b3"}, nodes[0].Strings("branch_targets"))

	cases, err := store.QueryRecords(context.Background(), "cases", nil)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, []string{"hydrometer"}, cases[0].Strings("tools"))
}

func TestLoadFixturesErrors(t *testing.T) {
	_, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cases: {not: a list}"), 0o600))
	_, err = LoadFixtures(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse fixtures")
}
