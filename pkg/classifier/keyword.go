package classifier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zen-systems/repairdesk/pkg/catalog"
)

// KeywordClassifier scores text by counting catalog keywords it contains.
// It is deterministic and safe for concurrent use.
type KeywordClassifier struct {
	catalog *catalog.Catalog
	lowered [][]string
}

// NewKeywordClassifier builds a classifier over cat.
func NewKeywordClassifier(cat *catalog.Catalog) *KeywordClassifier {
	categories := cat.Categories()
	lowered := make([][]string, len(categories))
	for i, c := range categories {
		lowered[i] = make([]string, len(c.Keywords))
		for j, kw := range c.Keywords {
			lowered[i][j] = strings.ToLower(kw)
		}
	}
	return &KeywordClassifier{catalog: cat, lowered: lowered}
}

// Catalog returns the catalog being scored against.
func (k *KeywordClassifier) Catalog() *catalog.Catalog {
	return k.catalog
}

type score struct {
	category catalog.Category
	matched  []string
}

func (s score) confidence() float64 {
	return clamp01(float64(len(s.matched)) / saturationCount)
}

// scores returns one entry per non-fallback category, in catalog order.
func (k *KeywordClassifier) scores(text string) []score {
	lower := strings.ToLower(text)
	var out []score
	for i, c := range k.catalog.Categories() {
		if c.IsFallback() {
			continue
		}
		s := score{category: c}
		seen := make(map[string]bool, len(c.Keywords))
		for j, kw := range k.lowered[i] {
			if seen[kw] {
				continue
			}
			if strings.Contains(lower, kw) {
				seen[kw] = true
				s.matched = append(s.matched, c.Keywords[j])
			}
		}
		out = append(out, s)
	}
	return out
}

// Classify implements Classifier. UseExternal has no effect.
func (k *KeywordClassifier) Classify(ctx context.Context, text string, opts ...Option) Result {
	o := resolveOptions(opts)
	return k.withClarification(k.classify(text), o.threshold)
}

func (k *KeywordClassifier) classify(text string) Result {
	var best *score
	all := k.scores(text)
	for i := range all {
		if len(all[i].matched) == 0 {
			continue
		}
		if best == nil || len(all[i].matched) > len(best.matched) {
			best = &all[i]
		}
	}

	if best == nil {
		return Result{
			Category:   k.catalog.Fallback().Name,
			Confidence: noMatchConfidence,
			Reason:     "no category keywords matched",
			Method:     MethodKeyword,
		}
	}
	return Result{
		Category:        best.category.Name,
		Confidence:      best.confidence(),
		Reason:          truncateRunes(fmt.Sprintf("matched: %s", strings.Join(best.matched, ", ")), maxReasonRunes),
		MatchedKeywords: best.matched,
		Method:          MethodKeyword,
	}
}

// ClassifyMulti ranks every category with at least one keyword hit.
// A non-positive topN means DefaultTopN.
func (k *KeywordClassifier) ClassifyMulti(text string, topN int) []Candidate {
	if topN <= 0 {
		topN = DefaultTopN
	}
	var candidates []Candidate
	for _, s := range k.scores(text) {
		if len(s.matched) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Category:        s.category.Name,
			Confidence:      s.confidence(),
			MatchedKeywords: s.matched,
			Description:     s.category.Description,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

func (k *KeywordClassifier) withClarification(r Result, threshold float64) Result {
	if r.Confidence < threshold {
		r.NeedsClarification = true
		r.ClarificationQuestions = k.catalog.ClarificationQuestions(r.Category)
	}
	return r
}
