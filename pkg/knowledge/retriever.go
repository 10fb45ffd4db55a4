package knowledge

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultTopN is the result cap when the caller passes a non-positive topN.
const DefaultTopN = 5

// Match weights. An exact full-query hit outranks whole-token hits, which
// outrank weak prefix hits.
const (
	WeightExactQuery   = 10.0
	WeightWholeToken   = 3.0
	WeightPartialToken = 1.0
	FileRelevanceBonus = 5.0
)

// Retriever ranks entries against a query. It holds only read-only tables
// and is safe for concurrent use.
type Retriever struct {
	keywords KeywordMap
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithKeywordMap replaces the gating map.
func WithKeywordMap(m KeywordMap) Option {
	return func(r *Retriever) {
		r.keywords = m
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetriever builds a retriever with DefaultKeywordMap unless overridden.
func NewRetriever(opts ...Option) *Retriever {
	r := &Retriever{keywords: DefaultKeywordMap(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.keywords = r.keywords.lowered()
	r.logger = r.logger.Named("knowledge")
	return r
}

type query struct {
	raw    string
	lower  string
	tokens []string
	// terms are the tokens plus every mapped keyword found inside the query.
	// Unspaced scripts such as Japanese tokenize to a single run, so the
	// keywords are what make them matchable.
	terms []string
}

func newQuery(text string) query {
	lower := strings.ToLower(strings.TrimSpace(text))
	tokens := tokenize(lower)
	return query{raw: text, lower: strings.Join(strings.Fields(lower), " "), tokens: tokens, terms: tokens}
}

// parseQuery is newQuery with the keyword map's embedded keywords added to
// the match terms.
func (r *Retriever) parseQuery(text string) query {
	q := newQuery(text)
	seen := make(map[string]bool, len(q.tokens))
	for _, tok := range q.tokens {
		seen[tok] = true
	}
	terms := append([]string(nil), q.tokens...)
	for _, rule := range r.keywords {
		if seen[rule.Keyword] || !strings.Contains(q.lower, rule.Keyword) {
			continue
		}
		seen[rule.Keyword] = true
		terms = append(terms, rule.Keyword)
	}
	q.terms = terms
	return q
}

type candidate struct {
	key     string
	result  Result
	extract extraction
	dedup   string
}

// Retrieve returns at most topN results ordered by score. Equal scores keep
// input order.
func (r *Retriever) Retrieve(queryText string, entries []Entry, topN int) []Result {
	if topN <= 0 {
		topN = DefaultTopN
	}
	q := r.parseQuery(queryText)
	if q.lower == "" {
		return nil
	}

	relevant := r.RelevantCategories(queryText)
	eligible := r.gate(q, entries, relevant)

	var candidates []*candidate
	index := make(map[string]*candidate)
	for _, idx := range eligible {
		entry := entries[idx]
		segments := splitSegments(entry.Content)
		for segIdx, seg := range segments {
			if !segmentMatches(q, seg.body) {
				continue
			}
			score := scoreSegment(q, seg.body) + fileBonus(q, entry)
			if score <= 0 {
				continue
			}
			key := entry.OriginID
			if entry.SourceType == SourceLocalText && len(segments) > 1 {
				key = fmt.Sprintf("%s#%d", entry.OriginID, segIdx+1)
			}
			c := &candidate{
				key: key,
				result: Result{
					Title:      resultTitle(seg, entry),
					Category:   entry.Category,
					Snippet:    truncateRunes(seg.body, maxSnippetRunes),
					Score:      score,
					SourceType: entry.SourceType,
					OriginID:   key,
				},
				extract: extract(seg.body),
				dedup:   strings.ToLower(entry.Category) + "\x00" + normalizeForDedup(seg.body),
			}

			if existing, ok := index[key]; ok {
				mergeInto(existing, c)
				continue
			}
			index[key] = c
			candidates = append(candidates, c)
		}
	}

	candidates = dedupeByContent(candidates)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		res := c.result
		res.Costs = c.extract.costs
		res.Tools = c.extract.tools
		res.Links = c.extract.links
		results = append(results, res)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topN {
		results = results[:topN]
	}
	r.logger.Debug("retrieval complete",
		zap.Int("entries", len(entries)),
		zap.Int("eligible", len(eligible)),
		zap.Int("results", len(results)))
	return results
}

// RelevantCategories returns the lower-cased categories the keyword map links
// to the query, by substring or token-level partial match, in map order.
func (r *Retriever) RelevantCategories(queryText string) []string {
	q := newQuery(queryText)
	var out []string
	seen := make(map[string]bool)
	add := func(category string) {
		if !seen[category] {
			seen[category] = true
			out = append(out, category)
		}
	}
	for _, rule := range r.keywords {
		if strings.Contains(q.lower, rule.Keyword) {
			add(rule.Category)
			continue
		}
		for _, tok := range q.tokens {
			if strings.Contains(rule.Keyword, tok) || strings.Contains(tok, rule.Keyword) {
				add(rule.Category)
				break
			}
		}
	}
	return out
}

// gate returns indexes of the entries worth scanning. An entry passes when
// its category was linked to the query or its category name appears in the
// query. When nothing passes, every entry is scanned.
func (r *Retriever) gate(q query, entries []Entry, relevant []string) []int {
	allowed := make(map[string]bool, len(relevant))
	for _, c := range relevant {
		allowed[c] = true
	}
	var out []int
	for i, e := range entries {
		category := strings.ToLower(strings.TrimSpace(e.Category))
		if allowed[category] || (category != "" && strings.Contains(q.lower, category)) {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		out = make([]int, len(entries))
		for i := range entries {
			out[i] = i
		}
	}
	return out
}

func segmentMatches(q query, body string) bool {
	lower := strings.ToLower(body)
	if strings.Contains(lower, q.lower) {
		return true
	}
	for _, term := range q.terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	contentTokens := tokenize(lower)
	for _, tok := range q.tokens {
		prefix := weakPrefix(tok)
		for _, ct := range contentTokens {
			if strings.HasPrefix(ct, prefix) {
				return true
			}
		}
	}
	return false
}

func scoreSegment(q query, body string) float64 {
	lower := strings.ToLower(body)
	var score float64
	if len(q.tokens) > 1 {
		score += WeightExactQuery * float64(strings.Count(lower, q.lower))
	}
	for _, term := range q.terms {
		score += WeightWholeToken * float64(strings.Count(lower, term))
	}
	contentTokens := tokenize(lower)
	for _, tok := range q.tokens {
		prefix := weakPrefix(tok)
		if prefix == tok {
			continue
		}
		for _, ct := range contentTokens {
			if strings.HasPrefix(ct, prefix) && !strings.Contains(ct, tok) {
				score += WeightPartialToken
			}
		}
	}
	return score
}

func fileBonus(q query, e Entry) float64 {
	label := strings.ToLower(e.Category + " " + path.Base(e.OriginID) + " " + e.Title)
	category := strings.ToLower(strings.TrimSpace(e.Category))
	if category != "" && strings.Contains(q.lower, category) {
		return FileRelevanceBonus
	}
	for _, tok := range q.tokens {
		if strings.Contains(label, tok) {
			return FileRelevanceBonus
		}
	}
	return 0
}

func resultTitle(seg segment, e Entry) string {
	switch {
	case seg.heading != "":
		return seg.heading
	case e.Title != "":
		return e.Title
	default:
		return path.Base(e.OriginID)
	}
}

// mergeInto folds a repeat hit for the same origin into the first one.
func mergeInto(dst, src *candidate) {
	merged := dst.extract.merge(src.extract)
	if src.result.Score > dst.result.Score {
		keepKey := dst.key
		*dst = *src
		dst.key = keepKey
	}
	dst.extract = merged
}

// dedupeByContent collapses results with the same category and content,
// keeping the higher score in the earlier position.
func dedupeByContent(candidates []*candidate) []*candidate {
	out := make([]*candidate, 0, len(candidates))
	seen := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if pos, ok := seen[c.dedup]; ok {
			if c.result.Score > out[pos].result.Score {
				c.extract = out[pos].extract.merge(c.extract)
				out[pos] = c
			}
			continue
		}
		seen[c.dedup] = len(out)
		out = append(out, c)
	}
	return out
}
