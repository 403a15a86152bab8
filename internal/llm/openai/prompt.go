package openai

import (
	"fmt"
	"strings"

	"venue-recommender/internal/llm"
	"venue-recommender/internal/shared/util"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."

// BuildMessages turns a prompt into chat messages.
func BuildMessages(p llm.Prompt) []Message {
	var out []Message
	if strings.TrimSpace(p.System) != "" {
		out = append(out, Message{Role: "system", Content: p.System})
	}
	return append(out, Message{Role: "user", Content: p.User})
}

func buildFixMessages(p llm.Prompt, raw string) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "system", Content: p.System},
		{Role: "user", Content: fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", raw)},
	}
}

// PromptHash identifies a rendered prompt in logs without storing its text.
func PromptHash(messages []Message) string {
	parts := make([]string, 0, 2*len(messages))
	for _, m := range messages {
		parts = append(parts, m.Role, m.Content)
	}
	return util.HashKey(parts...)
}
