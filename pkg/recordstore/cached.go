package recordstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cached puts a TTL cache in front of a Store. Concurrent misses for the same
// query share one upstream call. Errors are not cached.
type Cached struct {
	next  Store
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	records []Record
	expires time.Time
}

// NewCached wraps next. A non-positive ttl disables caching.
func NewCached(next Store, ttl time.Duration) *Cached {
	return &Cached{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// QueryRecords serves from cache when fresh, otherwise queries next.
func (c *Cached) QueryRecords(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	if c.ttl <= 0 {
		return c.next.QueryRecords(ctx, collection, filter)
	}
	key := cacheKey(collection, filter)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expires) {
		return cloneRecords(entry.records), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		records, err := c.next.QueryRecords(ctx, collection, filter)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{records: records, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneRecords(v.([]Record)), nil
}

// Invalidate drops every cached query.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func cacheKey(collection string, filter Filter) string {
	var sb strings.Builder
	sb.WriteString(collection)
	for _, k := range filter.Keys() {
		sb.WriteByte('\x00')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(filter[k])
	}
	return sb.String()
}

func cloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
