package config

import (
	"testing"
)

func TestResolve(t *testing.T) {
	aliases := &ModelAliases{
		Aliases: map[string]string{
			"fast":    "gpt-5.2-instant",
			"quality": "claude-sonnet-4-20250514",
		},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "resolve known alias", input: "fast", expected: "gpt-5.2-instant"},
		{name: "resolve another alias", input: "quality", expected: "claude-sonnet-4-20250514"},
		{name: "unknown alias returns input unchanged", input: "unknown-model", expected: "unknown-model"},
		{name: "canonical model returns unchanged", input: "gpt-5.2-instant", expected: "gpt-5.2-instant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := aliases.Resolve(tt.input)
			if result != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestResolve_NilAliases(t *testing.T) {
	var aliases *ModelAliases
	if result := aliases.Resolve("fast"); result != "fast" {
		t.Errorf("Resolve on nil should return input, got %q", result)
	}
	if aliases.IsAlias("fast") {
		t.Error("IsAlias on nil should be false")
	}
}

func TestIsAlias(t *testing.T) {
	aliases := &ModelAliases{Aliases: map[string]string{"fast": "gpt-5.2-instant"}}

	if !aliases.IsAlias("fast") {
		t.Error("IsAlias should return true for known alias")
	}
	if aliases.IsAlias("gpt-5.2-instant") {
		t.Error("IsAlias should return false for canonical model")
	}
}

func TestValidateModel(t *testing.T) {
	aliases := DefaultAliases()

	tests := []struct {
		name    string
		adapter string
		model   string
		wantErr bool
	}{
		{name: "valid anthropic model", adapter: "anthropic", model: "claude-sonnet-4-20250514"},
		{name: "valid deepseek model", adapter: "deepseek", model: "deepseek-chat"},
		{name: "model under wrong provider", adapter: "openai", model: "deepseek-chat", wantErr: true},
		{name: "unknown adapter", adapter: "mistral", model: "large", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := aliases.ValidateModel(tt.adapter, tt.model)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModel(%q, %q) error = %v, wantErr %v", tt.adapter, tt.model, err, tt.wantErr)
			}
		})
	}

	var none *ModelAliases
	if err := none.ValidateModel("anything", "goes"); err != nil {
		t.Errorf("nil aliases should skip validation, got %v", err)
	}
}

func TestProviderForModel(t *testing.T) {
	aliases := DefaultAliases()

	if got := aliases.ProviderForModel("gemini-2.0-flash"); got != "google" {
		t.Errorf("ProviderForModel(gemini-2.0-flash) = %q, want google", got)
	}
	if got := aliases.ProviderForModel("nope"); got != "" {
		t.Errorf("ProviderForModel(nope) = %q, want empty", got)
	}
}

func TestDefaultAliases(t *testing.T) {
	aliases := DefaultAliases()

	for alias, model := range aliases.Aliases {
		if aliases.ProviderForModel(model) == "" {
			t.Errorf("alias %q resolves to %q which no provider lists", alias, model)
		}
	}
	want := []string{"anthropic", "deepseek", "google", "mock", "openai"}
	got := aliases.ListProviders()
	if len(got) != len(want) {
		t.Fatalf("ListProviders() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListProviders() = %v, want %v", got, want)
		}
	}
}
