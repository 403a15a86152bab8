package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"golang.org/x/time/rate"

	"venue-recommender/internal/llm"
	"venue-recommender/internal/shared/telemetry"
)

// Config configures the chat completions client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerSec and Burst bound the outbound request rate. Zero disables the limit.
	RequestsPerSec float64
	Burst          int
	// NoTemperatureModels lists models that reject an explicit temperature.
	NoTemperatureModels []string
	HTTPClient          *http.Client
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api     openai.Client
	model   string
	noTemp  bool
	limiter *rate.Limiter
}

// NewClient constructs a new OpenAI client. Retries are left to the caller.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM model is required for OpenAI")
	}
	if strings.TrimSpace(cfg.APIKey) == "" && cfg.HTTPClient == nil {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &Client{
		api:    openai.NewClient(opts...),
		model:  cfg.Model,
		noTemp: isGPT5(cfg.Model) || inList(cfg.Model, cfg.NoTemperatureModels),
	}
	if cfg.RequestsPerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}
	return c, nil
}

// Complete sends the prompt and returns the trimmed response content. When a
// JSON response is requested and the model returns invalid JSON, one repair
// request is made.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	messages := BuildMessages(prompt)
	out, err := c.completeOnce(ctx, prompt, messages)
	if err != nil {
		return "", err
	}
	if !prompt.JSON || json.Valid([]byte(out)) {
		return out, nil
	}

	telemetry.Warn("llm.invalid_json", map[string]any{"prompt": prompt.Name, "model": c.model})
	out, err = c.completeOnce(ctx, prompt, buildFixMessages(prompt, out))
	if err != nil {
		return "", err
	}
	if !json.Valid([]byte(out)) {
		return "", fmt.Errorf("invalid JSON from OpenAI")
	}
	return out, nil
}

func (c *Client) completeOnce(ctx context.Context, prompt llm.Prompt, messages []Message) (string, error) {
	out, err := c.send(ctx, prompt, messages, !c.noTemp)
	if err != nil && !c.noTemp && isTemperatureUnsupported(err) {
		telemetry.Warn("llm.temperature_unsupported", map[string]any{"model": c.model})
		out, err = c.send(ctx, prompt, messages, false)
	}
	return out, err
}

func (c *Client) send(ctx context.Context, prompt llm.Prompt, messages []Message, withTemp bool) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("openai rate limit wait: %w", err)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toParams(messages),
	}
	if withTemp {
		params.Temperature = openai.Float(0)
	}
	if prompt.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}

	telemetry.Info("llm.response", map[string]any{
		"prompt":            prompt.Name,
		"prompt_hash":       PromptHash(messages),
		"model":             c.model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return content, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func isTemperatureUnsupported(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "temperature") && (strings.Contains(msg, "unsupported") || strings.Contains(msg, "does not support"))
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func inList(model string, list []string) bool {
	model = strings.ToLower(strings.TrimSpace(model))
	for _, m := range list {
		if strings.ToLower(strings.TrimSpace(m)) == model {
			return true
		}
	}
	return false
}

var _ llm.Client = (*Client)(nil)
