package recordstore

import (
	"context"
	"sync"
)

// MemoryStore keeps records in insertion order. It is used for fixtures and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
	err         error
	queries     int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Record)}
}

// Put appends records to a collection.
func (s *MemoryStore) Put(collection string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.collections[collection] = append(s.collections[collection], r.Clone())
	}
}

// FailWith makes every query return err until cleared with nil.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Queries returns how many queries have been served.
func (s *MemoryStore) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

// QueryRecords returns copies of the matching records.
func (s *MemoryStore) QueryRecords(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []Record
	for _, r := range s.collections[collection] {
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}
