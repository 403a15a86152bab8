package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"venue-recommender/internal/shared/telemetry"
)

// ErrBreakerOpen is returned while the provider circuit is open.
var ErrBreakerOpen = errors.New("llm circuit open")

// BreakerClient stops calling a provider after consecutive transient failures
// and lets a probe through once the cooldown elapses. Non-transient errors,
// such as a rejected prompt, do not count against the provider.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreakerClient wraps next. failures is the consecutive transient failure
// count that opens the circuit.
func NewBreakerClient(next Client, name string, failures uint32, cooldown time.Duration) *BreakerClient {
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Warn("llm.breaker_state", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
	}
	return &BreakerClient{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *BreakerClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	out, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	return out, err
}

// State returns "closed", "open" or "half-open".
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
