package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

// Collection is the record-store collection holding diagnostic nodes.
const Collection = "diagnostic_nodes"

// Loader reads graphs from a record store.
type Loader struct {
	store      recordstore.Store
	collection string
	logger     *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCollection overrides the collection name.
func WithCollection(name string) LoaderOption {
	return func(l *Loader) {
		if name != "" {
			l.collection = name
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader over store.
func NewLoader(store recordstore.Store, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, collection: Collection, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("graph")
	return l
}

// Load fetches every node of category. A reachable store with no records
// yields an empty graph and no error.
func (l *Loader) Load(ctx context.Context, category string) (*Graph, error) {
	records, err := l.store.QueryRecords(ctx, l.collection, recordstore.Filter{"category": category})
	if err != nil {
		return nil, &GraphLoadError{Category: category, Err: err}
	}

	nodes := make([]Node, 0, len(records))
	for _, r := range records {
		n := NodeFromRecord(r)
		if n.ID == "" {
			l.logger.Warn("skipping diagnostic node without id", zap.String("category", category))
			continue
		}
		if n.Category == "" {
			n.Category = category
		}
		nodes = append(nodes, n)
	}

	g := New(category, nodes)
	for _, issue := range g.Validate() {
		l.logger.Warn("diagnostic graph issue",
			zap.String("category", category),
			zap.String("kind", string(issue.Kind)),
			zap.String("node", issue.NodeID),
			zap.String("detail", issue.Message))
	}
	l.logger.Debug("loaded diagnostic graph", zap.String("category", category), zap.Int("nodes", g.Len()))
	return g, nil
}
