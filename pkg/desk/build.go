package desk

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/adapter"
	"github.com/zen-systems/repairdesk/pkg/catalog"
	"github.com/zen-systems/repairdesk/pkg/classifier"
	"github.com/zen-systems/repairdesk/pkg/config"
	"github.com/zen-systems/repairdesk/pkg/feedback"
	"github.com/zen-systems/repairdesk/pkg/graph"
	"github.com/zen-systems/repairdesk/pkg/knowledge"
	"github.com/zen-systems/repairdesk/pkg/knowledge/sources"
	"github.com/zen-systems/repairdesk/pkg/recordstore"
	"github.com/zen-systems/repairdesk/pkg/recordstore/postgres"
	"github.com/zen-systems/repairdesk/pkg/recordstore/sqlite"
	"github.com/zen-systems/repairdesk/pkg/traversal"
)

// mockReply keeps the mock adapter usable for local runs without keys.
const mockReply = `{"category": "other", "confidence": 0.5, "reason": "mock adapter"}`

// Build assembles a Desk from configuration. The returned close function
// releases the record store.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Desk, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := catalog.LoadOrDefault(cfg.CatalogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	costs := traversal.DefaultCostTable()
	if cfg.CostFile != "" {
		if costs, err = traversal.LoadCostTable(cfg.CostFile); err != nil {
			return nil, nil, fmt.Errorf("cost table: %w", err)
		}
	}

	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}

	model, err := NewLanguageModel(ctx, cfg, logger)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	keywordMap := knowledge.DefaultKeywordMap()
	if cfg.CatalogFile != "" {
		keywordMap = knowledge.KeywordMapFromCatalog(cat)
	}

	composerOpts := []feedback.Option{feedback.WithLogger(logger)}
	if model != nil && cfg.LLM.Feedback {
		composerOpts = append(composerOpts, feedback.WithLanguageModel(model))
	}

	graphs := graph.NewLoader(store, graph.WithLogger(logger))
	d := New(cat, graphs,
		WithClassifier(classifier.NewLanguageModelClassifier(model, classifier.NewKeywordClassifier(cat), logger)),
		WithRetriever(knowledge.NewRetriever(knowledge.WithKeywordMap(keywordMap), knowledge.WithLogger(logger))),
		WithLoaders(KnowledgeLoaders(cfg.Knowledge, store, logger)...),
		WithEngine(traversal.NewEngine(graphs, traversal.WithCostTable(costs), traversal.WithLogger(logger))),
		WithComposer(feedback.NewComposer(composerOpts...)),
		WithThreshold(cfg.Classifier.Threshold),
		WithExternal(cfg.Classifier.UseExternal),
		WithTopN(cfg.Knowledge.TopN),
		WithModelTimeout(cfg.LLM.Timeout),
		WithLogger(logger),
	)
	return d, closeStore, nil
}

// OpenStore opens the configured record store behind a TTL cache.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (recordstore.Store, func() error, error) {
	var (
		store     recordstore.Store
		closeFunc = func() error { return nil }
	)

	switch cfg.Driver {
	case config.DriverMemory, "":
		mem := recordstore.NewMemoryStore()
		if cfg.Fixtures != "" {
			var err error
			if mem, err = recordstore.LoadFixtures(cfg.Fixtures); err != nil {
				return nil, nil, err
			}
		}
		store = mem
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		store, closeFunc = db, db.Close
	case config.DriverPostgres:
		pg, pool, err := postgres.Connect(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = pg
		closeFunc = func() error {
			pool.Close()
			return nil
		}
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	logger.Debug("record store opened", zap.String("driver", cfg.Driver), zap.Duration("cache_ttl", cfg.CacheTTL))
	return recordstore.NewCached(store, cfg.CacheTTL), closeFunc, nil
}

// NewLanguageModel builds the retrying, rate-limited model chain. It returns
// nil when no adapter is configured or the primary has no API key.
func NewLanguageModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (adapter.LanguageModel, error) {
	if !cfg.LLM.Enabled() {
		return nil, nil
	}
	primary, err := newAdapter(ctx, cfg, cfg.LLM.Adapter)
	if err != nil {
		if errors.Is(err, errMissingKey) {
			logger.Warn("language model disabled", zap.String("adapter", cfg.LLM.Adapter), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}

	opts := []adapter.CompleterOption{
		adapter.WithRetry(adapter.RetryPolicy{
			MaxRetries:  cfg.LLM.MaxRetries,
			BaseBackoff: cfg.LLM.BaseBackoff,
			MaxBackoff:  cfg.LLM.MaxBackoff,
		}),
		adapter.WithRateLimit(cfg.LLM.RateLimit, cfg.LLM.Burst),
		adapter.WithLogger(logger),
	}
	for _, fb := range cfg.LLM.Fallback {
		a, err := newAdapter(ctx, cfg, fb.Adapter)
		if err != nil {
			logger.Warn("fallback adapter skipped", zap.String("adapter", fb.Adapter), zap.Error(err))
			continue
		}
		opts = append(opts, adapter.WithFallback(a, cfg.ResolveModel(fb.Model)))
	}

	completer, err := adapter.NewCompleter(primary, cfg.ResolveModel(cfg.LLM.Model), opts...)
	if err != nil {
		return nil, err
	}
	return completer, nil
}

var errMissingKey = errors.New("API key not set")

func newAdapter(ctx context.Context, cfg *config.Config, name string) (adapter.Adapter, error) {
	if !cfg.HasAdapter(name) {
		if name == "anthropic" || name == "openai" || name == "google" || name == "deepseek" {
			return nil, fmt.Errorf("%s: %w", name, errMissingKey)
		}
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
	switch name {
	case "anthropic":
		return adapter.NewAnthropicAdapter(cfg.APIKeys.Anthropic)
	case "openai":
		return adapter.NewOpenAIAdapter(cfg.APIKeys.OpenAI)
	case "google":
		return adapter.NewGoogleAdapter(ctx, cfg.APIKeys.Google)
	case "deepseek":
		return adapter.NewDeepSeekAdapter(cfg.APIKeys.DeepSeek)
	default:
		return adapter.NewMockAdapter(mockReply), nil
	}
}

// KnowledgeLoaders returns the configured knowledge sources in priority order.
func KnowledgeLoaders(cfg config.KnowledgeConfig, store recordstore.Store, logger *zap.Logger) []sources.Loader {
	var loaders []sources.Loader
	if cfg.LocalDir != "" {
		loaders = append(loaders, sources.NewLocalDirLoader(cfg.LocalDir, sources.WithLogger(logger)))
	}
	if store != nil && cfg.CaseCollection != "" {
		loaders = append(loaders, sources.NewCaseLoader(store, cfg.CaseCollection, nil))
	}
	if cfg.ArticleIndex != "" {
		var fetcher *sources.ArticleFetcher
		if cfg.FetchArticles {
			fetcher = sources.NewArticleFetcher(cfg.FetchTimeout, sources.WithFetchRate(cfg.FetchRate))
		}
		loaders = append(loaders, sources.NewArticleIndexLoader(cfg.ArticleIndex, fetcher, logger))
	}
	return loaders
}
