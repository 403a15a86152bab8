package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v2"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"throttled", &openai.Error{StatusCode: 429}, true},
		{"server", &openai.Error{StatusCode: 503}, true},
		{"bad request", &openai.Error{StatusCode: 400}, false},
		{"reset", errors.New("read tcp: connection reset by peer"), true},
		{"openai timeout", errors.New("openai request timeout"), true},
		{"schema", errors.New("missing field score"), false},
		{"breaker", fmt.Errorf("%w: open", ErrBreakerOpen), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBreakerOpensOnTransientFailures(t *testing.T) {
	calls := 0
	next := ClientFunc(func(ctx context.Context, p Prompt) (string, error) {
		calls++
		return "", context.DeadlineExceeded
	})
	b := NewBreakerClient(next, "test", 2, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := b.Complete(context.Background(), Prompt{}); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: expected deadline error, got %v", i, err)
		}
	}
	if _, err := b.Complete(context.Background(), Prompt{}); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("expected ErrBreakerOpen, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected open breaker to short-circuit, got %d calls", calls)
	}
	if b.State() != "open" {
		t.Fatalf("expected open state, got %s", b.State())
	}
}

func TestBreakerIgnoresPermanentErrors(t *testing.T) {
	calls := 0
	next := ClientFunc(func(ctx context.Context, p Prompt) (string, error) {
		calls++
		return "", errors.New("prompt rejected")
	})
	b := NewBreakerClient(next, "test", 1, time.Minute)
	for i := 0; i < 3; i++ {
		_, _ = b.Complete(context.Background(), Prompt{})
	}
	if calls != 3 {
		t.Fatalf("expected every call to reach the provider, got %d", calls)
	}
}

func TestTokenBudgetFitKeepsPrefix(t *testing.T) {
	b := NewTokenBudget("not-a-real-model", 10)
	parts := []string{strings.Repeat("a", 16), strings.Repeat("b", 16), strings.Repeat("c", 16)}
	got := b.Fit(0, parts)
	if len(got) != 2 {
		t.Fatalf("expected 2 parts within budget, got %d", len(got))
	}

	tight := b.Fit(100, parts)
	if len(tight) != 1 {
		t.Fatalf("expected the first part to always survive, got %d", len(tight))
	}
}

func TestTokenBudgetDisabled(t *testing.T) {
	b := NewTokenBudget("gpt-4o-mini", 0)
	parts := []string{"x", "y"}
	if got := b.Fit(1_000_000, parts); len(got) != 2 {
		t.Fatalf("expected disabled budget to keep all parts")
	}
}

func TestPlaceholderClient(t *testing.T) {
	if _, err := (PlaceholderClient{}).Complete(context.Background(), Prompt{}); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
