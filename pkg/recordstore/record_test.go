package recordstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"id":       "N1",
		"start":    true,
		"terminal": "yes",
		"count":    float64(3),
		"list":     []any{"a", " b ", ""},
		"csv":      "x, y,,z",
		"json":     `["p","q"]`,
	}

	assert.Equal(t, "N1", r.String("id"))
	assert.Equal(t, "", r.String("missing"))
	assert.Equal(t, "3", r.String("count"))
	assert.True(t, r.Bool("start"))
	assert.True(t, r.Bool("terminal"))
	assert.False(t, r.Bool("missing"))
	assert.Equal(t, 3, r.Int("count"))
	assert.Equal(t, []string{"a", "b"}, r.Strings("list"))
	assert.Equal(t, []string{"x", "y", "z"}, r.Strings("csv"))
	assert.Equal(t, []string{"p", "q"}, r.Strings("json"))
	assert.Nil(t, r.Strings("missing"))
	assert.Equal(t, "N1", r.First("$id", "id"))
}

func TestMemoryStoreFilters(t *testing.T) {
	s := NewMemoryStore()
	s.Put("nodes",
		Record{"id": "1", "category": "battery"},
		Record{"id": "2", "category": "gas"},
		Record{"id": "3", "category": "battery"},
	)

	got, err := s.QueryRecords(context.Background(), "nodes", Filter{"category": "battery"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].String("id"))
	assert.Equal(t, "3", got[1].String("id"))

	got[0]["id"] = "changed"
	again, _ := s.QueryRecords(context.Background(), "nodes", Filter{"category": "battery"})
	assert.Equal(t, "1", again[0].String("id"))

	none, err := s.QueryRecords(context.Background(), "other", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreFailure(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("unreachable")
	s.FailWith(boom)
	_, err := s.QueryRecords(context.Background(), "nodes", nil)
	assert.ErrorIs(t, err, boom)
}
