package llm

import (
	"github.com/pkoukk/tiktoken-go"

	"venue-recommender/internal/shared/telemetry"
)

// TokenBudget caps how much context is packed into a prompt. A zero Max
// disables the cap.
type TokenBudget struct {
	Max int
	enc *tiktoken.Tiktoken
}

// NewTokenBudget builds a budget counting tokens with the model's encoding.
// When the encoding is unavailable it falls back to roughly four characters
// per token.
func NewTokenBudget(model string, max int) *TokenBudget {
	b := &TokenBudget{Max: max}
	if max <= 0 {
		return b
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		telemetry.Warn("llm.tokenizer_unavailable", map[string]any{"model": model, "error": err})
		return b
	}
	b.enc = enc
	return b
}

// Count returns the token count of text.
func (b *TokenBudget) Count(text string) int {
	if b == nil || b.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(b.enc.Encode(text, nil, nil))
}

// Fit returns the longest prefix of parts whose combined size, plus reserved
// tokens, stays within the budget. The first part is always kept.
func (b *TokenBudget) Fit(reserved int, parts []string) []string {
	if b == nil || b.Max <= 0 || len(parts) == 0 {
		return parts
	}
	used := reserved
	for i, p := range parts {
		used += b.Count(p)
		if used > b.Max && i > 0 {
			return parts[:i]
		}
	}
	return parts
}
