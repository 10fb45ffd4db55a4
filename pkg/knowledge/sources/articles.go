package sources

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zen-systems/repairdesk/pkg/knowledge"
)

// ArticleRef is one external article in the index file.
type ArticleRef struct {
	URL      string   `yaml:"url"`
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	Summary  string   `yaml:"summary"`
	Tags     []string `yaml:"tags,omitempty"`
}

type articleIndex struct {
	Articles []ArticleRef `yaml:"articles"`
}

// ArticleIndexLoader turns a YAML article index into external_link entries.
// With a fetcher, the page body replaces the summary when it can be fetched.
type ArticleIndexLoader struct {
	path    string
	fetcher *ArticleFetcher
	logger  *zap.Logger
}

// NewArticleIndexLoader creates a loader for the index at path. fetcher may be nil.
func NewArticleIndexLoader(path string, fetcher *ArticleFetcher, logger *zap.Logger) *ArticleIndexLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleIndexLoader{path: path, fetcher: fetcher, logger: logger}
}

// Name returns the loader identifier.
func (a *ArticleIndexLoader) Name() string {
	return "articles:" + a.path
}

// Load reads the index and, when configured, fetches each article.
func (a *ArticleIndexLoader) Load(ctx context.Context) ([]knowledge.Entry, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("reading article index: %w", err)
	}
	var index articleIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parsing article index: %w", err)
	}

	var out []knowledge.Entry
	for _, ref := range index.Articles {
		if ref.URL == "" {
			a.logger.Warn("skipping article without url", zap.String("title", ref.Title))
			continue
		}
		entry := knowledge.Entry{
			Category:   ref.Category,
			SourceType: knowledge.SourceExternalLink,
			OriginID:   ref.URL,
			Title:      ref.Title,
			Content:    summaryContent(ref),
		}
		if a.fetcher != nil {
			article, err := a.fetcher.Fetch(ctx, ref.URL)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				a.logger.Warn("article fetch failed, using summary", zap.String("url", ref.URL), zap.Error(err))
			case article.Markdown != "":
				entry.Content = article.Markdown + "\n\n" + ref.URL
				if entry.Title == "" {
					entry.Title = article.Title
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func summaryContent(ref ArticleRef) string {
	parts := []string{}
	if ref.Title != "" {
		parts = append(parts, ref.Title)
	}
	if ref.Summary != "" {
		parts = append(parts, ref.Summary)
	}
	if len(ref.Tags) > 0 {
		parts = append(parts, strings.Join(ref.Tags, ", "))
	}
	parts = append(parts, ref.URL)
	return strings.Join(parts, "\n")
}
