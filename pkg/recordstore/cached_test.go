package recordstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedServesWithinTTL(t *testing.T) {
	base := NewMemoryStore()
	base.Put("cases", Record{"id": "c1", "category": "battery"})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCached(base, time.Minute)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.QueryRecords(ctx, "cases", Filter{"category": "battery"})
	require.NoError(t, err)
	_, err = c.QueryRecords(ctx, "cases", Filter{"category": "battery"})
	require.NoError(t, err)
	assert.Equal(t, 1, base.Queries())

	now = now.Add(2 * time.Minute)
	_, err = c.QueryRecords(ctx, "cases", Filter{"category": "battery"})
	require.NoError(t, err)
	assert.Equal(t, 2, base.Queries())

	c.Invalidate()
	_, err = c.QueryRecords(ctx, "cases", Filter{"category": "battery"})
	require.NoError(t, err)
	assert.Equal(t, 3, base.Queries())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	base := NewMemoryStore()
	base.FailWith(errors.New("down"))
	c := NewCached(base, time.Minute)

	_, err := c.QueryRecords(context.Background(), "cases", nil)
	require.Error(t, err)

	base.FailWith(nil)
	_, err = c.QueryRecords(context.Background(), "cases", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, base.Queries())
}

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := cacheKey("c", Filter{"x": "1", "y": "2"})
	b := cacheKey("c", Filter{"y": "2", "x": "1"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, cacheKey("d", Filter{"x": "1", "y": "2"}))
}
