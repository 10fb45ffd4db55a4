// Package feedback composes the short acknowledgment shown after each answer.
package feedback

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/adapter"
)

// Type classifies an acknowledgment.
type Type string

const (
	TypeWarning  Type = "warning"
	TypePositive Type = "positive"
	TypeNeutral  Type = "neutral"
	TypeInfo     Type = "info"
)

const maxModelMessageRunes = 200

// NodeContext describes the step being acknowledged.
type NodeContext struct {
	Category string
	Urgency  string
	Symptom  string
}

// Feedback is the composed acknowledgment.
type Feedback struct {
	Message            string `json:"message"`
	Type               Type   `json:"type"`
	Icon               string `json:"icon"`
	ShowUrgencyWarning bool   `json:"show_urgency_warning"`
	NextStepHint       string `json:"next_step_hint"`
}

var icons = map[Type]string{
	TypeWarning:  "⚠️",
	TypePositive: "✅",
	TypeNeutral:  "🤔",
	TypeInfo:     "ℹ️",
}

var nextStepHints = map[Type]string{
	TypeWarning:  "Stop using the equipment until the safety checks are done.",
	TypePositive: "Let's rule out the next possible cause.",
	TypeNeutral:  "That's fine, the next question is easier to check.",
	TypeInfo:     "Moving on to the next question.",
}

var templates = map[Type][]string{
	TypeWarning: {
		"That answer points to a possible safety issue with the {category}. Please be careful.",
		"Thanks. With {symptom}, this may need urgent attention.",
	},
	TypePositive: {
		"Good, that part of the {category} looks normal.",
		"Great, we can rule that out for {symptom}.",
		"Okay, no issue there. Let's keep narrowing it down.",
	},
	TypeNeutral: {
		"No problem if you're not sure. We'll try another angle on {symptom}.",
		"That's okay. Let's check something easier on the {category}.",
	},
	TypeInfo: {
		"Got it. That helps narrow down {symptom}.",
		"Thanks, noted for the {category}.",
		"Understood.",
	},
}

var (
	positivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bno (?:issues?|problems?)\b`),
		regexp.MustCompile(`\bnormal(?:ly)?\b`),
		regexp.MustCompile(`\bworks? fine\b`),
	}
	positivePhrases    = []string{"問題ない", "問題なし", "正常", "異常なし"}
	negatedPositive    = regexp.MustCompile(`\b(?:not|isn't|wasn't|never)\s+(?:normal|fine)\b|\bdoes(?:n't| not) work fine\b`)
	negatedPhrases     = []string{"正常ではな", "正常じゃな", "正常でな", "正常ではありません", "正常に動かな", "正常に動作しな", "不正常", "非正常"}
	uncertainPhrases   = []string{"don't know", "do not know", "not sure", "unsure", "no idea", "わからない", "分からない", "不明"}
	urgentUrgencyLevel = map[string]bool{"high": true, "urgent": true}
)

// Composer builds acknowledgments. The optional model writes bespoke messages;
// templates are used whenever it is absent or fails.
type Composer struct {
	model  adapter.LanguageModel
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Composer.
type Option func(*Composer)

// WithLanguageModel enables model-written messages.
func WithLanguageModel(model adapter.LanguageModel) Option {
	return func(c *Composer) {
		c.model = model
	}
}

// WithRand sets the template picker source.
func WithRand(rng *rand.Rand) Option {
	return func(c *Composer) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewComposer creates a composer.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		logger: zap.NewNop(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("feedback")
	return c
}

// Compose never fails; model errors fall back to templates.
func (c *Composer) Compose(ctx context.Context, answer string, nc NodeContext) Feedback {
	t := Classify(answer, nc.Urgency)
	fb := Feedback{
		Type:               t,
		Icon:               icons[t],
		ShowUrgencyWarning: t == TypeWarning,
		NextStepHint:       nextStepHints[t],
	}
	if msg, ok := c.modelMessage(ctx, answer, nc, t); ok {
		fb.Message = msg
		return fb
	}
	fb.Message = fill(c.pick(templates[t]), nc)
	return fb
}

// Classify decides the acknowledgment type for an answer.
func Classify(answer, urgency string) Type {
	if urgentUrgencyLevel[strings.ToLower(strings.TrimSpace(urgency))] {
		return TypeWarning
	}
	lower := strings.ToLower(strings.TrimSpace(answer))
	if isPositive(lower) && !isNegatedPositive(lower) {
		return TypePositive
	}
	if lower == "?" {
		return TypeNeutral
	}
	for _, p := range uncertainPhrases {
		if strings.Contains(lower, p) {
			return TypeNeutral
		}
	}
	return TypeInfo
}

// isNegatedPositive reports replies such as "正常ではない" that contain a
// positive phrase but deny it.
func isNegatedPositive(lower string) bool {
	if negatedPositive.MatchString(lower) {
		return true
	}
	for _, p := range negatedPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func isPositive(lower string) bool {
	for _, p := range positivePatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	for _, p := range positivePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (c *Composer) modelMessage(ctx context.Context, answer string, nc NodeContext, t Type) (string, bool) {
	if c.model == nil {
		return "", false
	}
	system := "You write one short, friendly acknowledgment for a person troubleshooting their equipment. " +
		"Reply with the sentence only."
	user := fmt.Sprintf("Category: %s\nSymptom: %s\nTone: %s\nTheir answer: %s", nc.Category, nc.Symptom, t, answer)
	out, err := c.model.Complete(ctx, system, user)
	if err != nil {
		c.logger.Debug("model acknowledgment failed, using template", zap.Error(err))
		return "", false
	}
	out = strings.Trim(strings.TrimSpace(out), `"`)
	if out == "" || utf8.RuneCountInString(out) > maxModelMessageRunes {
		c.logger.Debug("model acknowledgment unusable, using template", zap.Int("runes", utf8.RuneCountInString(out)))
		return "", false
	}
	return out, true
}

func (c *Composer) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return pool[c.rng.Intn(len(pool))]
}

func fill(template string, nc NodeContext) string {
	symptom := strings.TrimSpace(nc.Symptom)
	if symptom == "" {
		symptom = "the problem"
	}
	category := strings.TrimSpace(nc.Category)
	if category == "" {
		category = "equipment"
	}
	return strings.NewReplacer("{symptom}", symptom, "{category}", category).Replace(template)
}
