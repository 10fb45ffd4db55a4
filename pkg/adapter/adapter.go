package adapter

import "context"

// Prompt is a single language-model request split into its system and user parts.
type Prompt struct {
	System string
	User   string
}

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Generate sends a prompt to the model and returns the response.
	Generate(ctx context.Context, model string, prompt Prompt) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// LanguageModel is the narrow completion contract used by the classifier and
// the feedback composer. Output is free text and may be malformed.
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
