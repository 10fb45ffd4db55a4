// Package classifier maps free-text fault descriptions to catalog categories.
package classifier

import (
	"context"
	"unicode/utf8"
)

// Method records which path produced a result.
type Method string

const (
	MethodKeyword               Method = "keyword"
	MethodLanguageModel         Method = "language_model"
	MethodLanguageModelFallback Method = "language_model_fallback"
)

const (
	// DefaultThreshold is the confidence below which clarification is requested.
	DefaultThreshold = 0.7
	// DefaultTopN is the candidate count returned by ClassifyMulti.
	DefaultTopN = 3

	maxReasonRunes     = 50
	noMatchConfidence  = 0.2
	badReplyConfidence = 0.3
	saturationCount    = 3
)

// Result is the outcome of one classification call.
type Result struct {
	Category               string   `json:"category"`
	Confidence             float64  `json:"confidence"`
	Reason                 string   `json:"reason"`
	MatchedKeywords        []string `json:"matched_keywords"`
	Method                 Method   `json:"method"`
	NeedsClarification     bool     `json:"needs_clarification"`
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`
}

// Candidate is one entry of a ranked multi-category classification.
type Candidate struct {
	Category        string   `json:"category"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
	Description     string   `json:"description"`
}

// Classifier resolves a single best category. Implementations never fail:
// every path degrades to a usable result.
type Classifier interface {
	Classify(ctx context.Context, text string, opts ...Option) Result
}

type callOptions struct {
	threshold   float64
	useExternal bool
}

// Option adjusts one Classify call.
type Option func(*callOptions)

// WithThreshold sets the clarification threshold.
func WithThreshold(threshold float64) Option {
	return func(o *callOptions) {
		o.threshold = threshold
	}
}

// UseExternal toggles the language-model path for implementations that have one.
func UseExternal(enabled bool) Option {
	return func(o *callOptions) {
		o.useExternal = enabled
	}
}

func resolveOptions(opts []Option) callOptions {
	o := callOptions{threshold: DefaultThreshold, useExternal: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
