package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"rate limited", &AdapterError{Status: 429}, true},
		{"server error", &AdapterError{Status: 502}, true},
		{"bad request", &AdapterError{Status: 400}, false},
		{"temporary", &AdapterError{Temporary: true}, true},
		{"wrapped", fmt.Errorf("call: %w", &AdapterError{Status: 503}), true},
		{"plain", errors.New("nope"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAdapterErrorMessage(t *testing.T) {
	err := &AdapterError{Adapter: "openai", Err: errors.New("quota")}
	if err.Error() != "openai: quota" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	bare := &AdapterError{Adapter: "x", Status: 500}
	if bare.Error() != "x adapter error (status=500)" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}
