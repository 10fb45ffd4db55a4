package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// Article is a fetched page converted to markdown.
type Article struct {
	URL      string
	Title    string
	Markdown string
}

// ArticleFetcher downloads article pages and converts them to markdown.
type ArticleFetcher struct {
	client         *http.Client
	converter      *md.Converter
	limiter        *rate.Limiter
	userAgent      string
	maxContentSize int64
}

// FetcherOption configures an ArticleFetcher.
type FetcherOption func(*ArticleFetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *ArticleFetcher) {
		f.client = client
	}
}

// WithFetchRate caps requests per second. A non-positive rps disables limiting.
func WithFetchRate(rps float64) FetcherOption {
	return func(f *ArticleFetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewArticleFetcher creates a fetcher.
func NewArticleFetcher(timeout time.Duration, opts ...FetcherOption) *ArticleFetcher {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	f := &ArticleFetcher{
		client:         &http.Client{Timeout: timeout},
		converter:      converter,
		limiter:        rate.NewLimiter(rate.Limit(2), 1),
		userAgent:      "repairdesk/1.0",
		maxContentSize: 2 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and converts the page body to markdown.
func (f *ArticleFetcher) Fetch(ctx context.Context, url string) (*Article, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxContentSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	title := htmlTitle(body)
	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", url, err)
	}
	markdown = cleanMarkdown(markdown)
	if title == "" {
		title = markdownTitle(markdown)
	}
	return &Article{URL: url, Title: title, Markdown: markdown}, nil
}

func htmlTitle(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
