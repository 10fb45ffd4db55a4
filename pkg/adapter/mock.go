package adapter

import (
	"context"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	defaultResponse string
	errs            []error
	calls           []Prompt
	Usage           *Usage
}

// NewMockAdapter creates a mock adapter that answers every prompt with defaultResponse.
func NewMockAdapter(defaultResponse string) *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: defaultResponse,
	}
}

// NewMockAdapterWithResponses creates a mock adapter keyed by user prompt.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if responses == nil {
		responses = make(map[string]string)
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// FailWith queues errors returned by the next calls, in order.
func (a *MockAdapter) FailWith(errs ...error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, errs...)
}

// Calls returns the prompts received so far.
func (a *MockAdapter) Calls() []Prompt {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Prompt, len(a.calls))
	copy(out, a.calls)
	return out
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns the scripted response for the prompt.
func (a *MockAdapter) Generate(ctx context.Context, model string, prompt Prompt) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, prompt)
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if model == "" {
		model = "mock-1"
	}
	content := a.defaultResponse
	if response, ok := a.responses[prompt.User]; ok {
		content = response
	}
	return &Response{Content: content, Adapter: a.Name(), Model: model, Usage: a.Usage}, nil
}
