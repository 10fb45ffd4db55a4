package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, r := range []recordstore.Record{
		{"id": "N1", "category": "battery", "is_start": true},
		{"id": "N2", "category": "gas"},
		{"id": "N3", "category": "battery", "branch_targets": []string{"N4", "N5"}},
	} {
		_, err := s.Put(ctx, "diagnostic_nodes", r)
		require.NoError(t, err)
	}

	got, err := s.QueryRecords(ctx, "diagnostic_nodes", recordstore.Filter{"category": "battery"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "N1", got[0].String("id"))
	assert.True(t, got[0].Bool("is_start"))
	assert.Equal(t, []string{"N4", "N5"}, got[1].Strings("branch_targets"))

	all, err := s.QueryRecords(ctx, "diagnostic_nodes", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.QueryRecords(ctx, "cases", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	s, err := New(path)
	require.NoError(t, err)
	_, err = s.Put(context.Background(), "cases", recordstore.Record{"id": "c1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.QueryRecords(context.Background(), "cases", nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
