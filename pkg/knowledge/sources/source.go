// Package sources loads knowledge entries from local files, the record store
// and an external article index.
package sources

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/repairdesk/pkg/knowledge"
)

// Loader produces knowledge entries.
type Loader interface {
	// Name returns the loader identifier used in logs.
	Name() string

	// Load returns every entry the loader can read.
	Load(ctx context.Context) ([]knowledge.Entry, error)
}

const maxParallelLoads = 4

// Gather runs loaders concurrently and concatenates their entries in loader
// order. A failing loader is skipped with a warning.
func Gather(ctx context.Context, loaders []Loader, logger *zap.Logger) []knowledge.Entry {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([][]knowledge.Entry, len(loaders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, l := range loaders {
		g.Go(func() error {
			entries, err := l.Load(gctx)
			if err != nil {
				logger.Warn("knowledge source skipped", zap.String("source", l.Name()), zap.Error(err))
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	_ = g.Wait()

	var out []knowledge.Entry
	for _, entries := range results {
		out = append(out, entries...)
	}
	return out
}

// StaticLoader serves a fixed entry list.
type StaticLoader struct {
	name    string
	entries []knowledge.Entry
}

// NewStaticLoader creates a loader over entries.
func NewStaticLoader(name string, entries ...knowledge.Entry) *StaticLoader {
	return &StaticLoader{name: name, entries: append([]knowledge.Entry(nil), entries...)}
}

// Name returns the loader identifier.
func (s *StaticLoader) Name() string { return s.name }

// Load returns a copy of the entries.
func (s *StaticLoader) Load(ctx context.Context) ([]knowledge.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]knowledge.Entry(nil), s.entries...), nil
}
