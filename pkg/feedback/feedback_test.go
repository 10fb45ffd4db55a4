package feedback

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubModel struct {
	reply string
	err   error
}

func (s stubModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.reply, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		answer  string
		urgency string
		want    Type
	}{
		{"no issue at all", "urgent", TypeWarning},
		{"yes", "HIGH", TypeWarning},
		{"No issue", "caution", TypePositive},
		{"everything looks normal", "", TypePositive},
		{"正常です", "", TypePositive},
		{"abnormal noise", "", TypeInfo},
		{"正常ではない", "", TypeInfo},
		{"正常じゃないです", "", TypeInfo},
		{"正常に動かない", "", TypeInfo},
		{"it's not normal", "", TypeInfo},
		{"正常ではないかも、わからない", "", TypeNeutral},
		{"I don't know", "", TypeNeutral},
		{"よくわからない", "", TypeNeutral},
		{"?", "", TypeNeutral},
		{"yes", "caution", TypeInfo},
	}
	for _, tt := range tests {
		if got := Classify(tt.answer, tt.urgency); got != tt.want {
			t.Fatalf("Classify(%q, %q) = %s, want %s", tt.answer, tt.urgency, got, tt.want)
		}
	}
}

func TestComposeTemplates(t *testing.T) {
	c := NewComposer(WithRand(rand.New(rand.NewSource(1))))
	nc := NodeContext{Category: "refrigerator", Urgency: "caution", Symptom: "fridge not cooling"}

	for i := 0; i < 20; i++ {
		fb := c.Compose(context.Background(), "I don't know", nc)
		assert.Equal(t, TypeNeutral, fb.Type)
		assert.Equal(t, "🤔", fb.Icon)
		assert.False(t, fb.ShowUrgencyWarning)
		assert.NotEmpty(t, fb.NextStepHint)
		assert.NotContains(t, fb.Message, "{")
		assert.Contains(t, templatesFilled(TypeNeutral, nc), fb.Message)
	}
}

func TestComposeWarning(t *testing.T) {
	c := NewComposer()
	fb := c.Compose(context.Background(), "yes", NodeContext{Urgency: "urgent"})
	assert.Equal(t, TypeWarning, fb.Type)
	assert.True(t, fb.ShowUrgencyWarning)
	assert.NotContains(t, fb.Message, "{")
}

func TestComposeDeterministicWithSeed(t *testing.T) {
	nc := NodeContext{Category: "gas", Symptom: "no flame"}
	a := NewComposer(WithRand(rand.New(rand.NewSource(7))))
	b := NewComposer(WithRand(rand.New(rand.NewSource(7))))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Compose(context.Background(), "ok", nc), b.Compose(context.Background(), "ok", nc))
	}
}

func TestComposeLanguageModel(t *testing.T) {
	nc := NodeContext{Category: "gas", Symptom: "no flame"}

	c := NewComposer(WithLanguageModel(stubModel{reply: `"Thanks, that rules out the regulator."`}))
	fb := c.Compose(context.Background(), "no problem there", nc)
	assert.Equal(t, "Thanks, that rules out the regulator.", fb.Message)
	assert.Equal(t, TypePositive, fb.Type)

	for _, model := range []stubModel{
		{err: errors.New("quota exceeded")},
		{err: context.DeadlineExceeded},
		{reply: "   "},
		{reply: strings.Repeat("x", 300)},
	} {
		c := NewComposer(WithLanguageModel(model))
		fb := c.Compose(context.Background(), "no problem there", nc)
		assert.Contains(t, templatesFilled(TypePositive, nc), fb.Message)
	}
}

func templatesFilled(t Type, nc NodeContext) []string {
	var out []string
	for _, tmpl := range templates[t] {
		out = append(out, fill(tmpl, nc))
	}
	return out
}
