package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/adapter"
)

const systemPrompt = "You classify equipment fault reports into one category. " +
	"Respond with JSON only."

// LanguageModelClassifier asks a language model for the category and falls
// back to the wrapped KeywordClassifier whenever the call fails.
type LanguageModelClassifier struct {
	model   adapter.LanguageModel
	keyword *KeywordClassifier
	logger  *zap.Logger
}

// NewLanguageModelClassifier wraps keyword with a language-model path.
// A nil model makes every call take the keyword path.
func NewLanguageModelClassifier(model adapter.LanguageModel, keyword *KeywordClassifier, logger *zap.Logger) *LanguageModelClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LanguageModelClassifier{model: model, keyword: keyword, logger: logger.Named("classifier")}
}

// ClassifyMulti delegates to the keyword classifier.
func (c *LanguageModelClassifier) ClassifyMulti(text string, topN int) []Candidate {
	return c.keyword.ClassifyMulti(text, topN)
}

// Classify implements Classifier.
func (c *LanguageModelClassifier) Classify(ctx context.Context, text string, opts ...Option) Result {
	o := resolveOptions(opts)
	if !o.useExternal || c.model == nil {
		return c.keyword.Classify(ctx, text, opts...)
	}

	content, err := c.model.Complete(ctx, systemPrompt, c.buildPrompt(text))
	if err == nil && strings.TrimSpace(content) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		c.logger.Debug("language model classification failed, using keywords", zap.Error(err))
		return c.keyword.Classify(ctx, text, opts...)
	}

	result, err := c.parse(content)
	if err != nil {
		c.logger.Warn("language model reply unusable", zap.Error(err))
		result = Result{
			Category:   c.keyword.Catalog().Fallback().Name,
			Confidence: badReplyConfidence,
			Reason:     "model reply could not be parsed",
			Method:     MethodLanguageModelFallback,
		}
	}
	return c.keyword.withClarification(result, o.threshold)
}

func (c *LanguageModelClassifier) buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Choose the category that best matches the fault report.\n")
	sb.WriteString(`Return ONLY JSON: {"category":"...","confidence":0-1,"reason":"...","matched_keywords":["..."]}.`)
	sb.WriteString("\n\nCategories:\n")
	for _, cat := range c.keyword.Catalog().Categories() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", cat.Name, cat.Description))
	}
	sb.WriteString("\nFault report:\n")
	sb.WriteString(text)
	return sb.String()
}

type modelPick struct {
	Category        *string  `json:"category"`
	Confidence      *float64 `json:"confidence"`
	Reason          string   `json:"reason"`
	MatchedKeywords []string `json:"matched_keywords"`
}

func (c *LanguageModelClassifier) parse(content string) (Result, error) {
	block, ok := firstJSONObject(content)
	if !ok {
		return Result{}, errors.New("no JSON object in reply")
	}
	var pick modelPick
	if err := json.Unmarshal([]byte(block), &pick); err != nil {
		return Result{}, err
	}
	if pick.Category == nil || strings.TrimSpace(*pick.Category) == "" {
		return Result{}, errors.New("missing category")
	}
	if pick.Confidence == nil {
		return Result{}, errors.New("missing confidence")
	}
	name := strings.TrimSpace(*pick.Category)
	if _, ok := c.keyword.Catalog().Lookup(name); !ok {
		return Result{}, fmt.Errorf("unknown category %q", name)
	}

	return Result{
		Category:        name,
		Confidence:      clamp01(*pick.Confidence),
		Reason:          truncateRunes(strings.TrimSpace(pick.Reason), maxReasonRunes),
		MatchedKeywords: dedupe(pick.MatchedKeywords),
		Method:          MethodLanguageModel,
	}, nil
}

// firstJSONObject returns the first balanced {...} block, skipping braces
// inside string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func dedupe(items []string) []string {
	var out []string
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
