package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pawsona/pawsona/internal/models"
)

// Config holds the OpenRouter connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// OpenRouter attribution headers, both optional.
	Referer string
	Title   string
}

// modelAliases maps the short names accepted in requests to full
// OpenRouter model identifiers.
var modelAliases = map[string]string{
	"claude":    "anthropic/claude-3.5-sonnet",
	"gpt4":      "openai/gpt-4o",
	"gpt4-mini": "openai/gpt-4o-mini",
	"llama":     "meta-llama/llama-3.3-70b-instruct",
	"free":      "google/gemini-2.0-flash-exp:free",
}

// ResolveModel expands a short alias to its OpenRouter identifier.
// Unknown names pass through unchanged so callers can use any model
// OpenRouter serves.
func ResolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

// Gateway is a thin completion client for the OpenRouter API. It holds no
// conversation state; each call sends the full message sequence.
type Gateway struct {
	client *openai.Client
	cfg    Config
}

func NewGateway(cfg Config) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt4-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Transport: &attributionTransport{
			referer: cfg.Referer,
			title:   cfg.Title,
			base:    http.DefaultTransport,
		},
	}

	return &Gateway{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}
}

// Available reports whether the gateway has a credential to call the
// provider with. Callers use this to skip generation entirely instead of
// paying for a request that will be rejected.
func (g *Gateway) Available() bool {
	return g.cfg.APIKey != ""
}

// Complete sends the message sequence and returns the generated text.
// Model may be an alias or a full identifier; empty model, zero maxTokens
// and negative temperature fall back to the configured defaults. Failures
// are classified into ErrUnauthorized, ErrProvider, ErrMalformed and
// ErrTimeout.
func (g *Gateway) Complete(ctx context.Context, messages []models.ChatMessage, model string, temperature float64, maxTokens int) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("%w: no API key configured", ErrUnauthorized)
	}
	if err := validateMessages(messages); err != nil {
		return "", err
	}

	if model == "" {
		model = g.cfg.Model
	}
	if temperature < 0 {
		temperature = g.cfg.Temperature
	}
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       ResolveModel(model),
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
		Messages:    convertMessages(messages),
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformed)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty completion text", ErrMalformed)
	}
	return content, nil
}

// validateMessages enforces the provider's message shape: only the three
// known roles, and at most one system message, which must come first.
func validateMessages(messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("llm: empty message sequence")
	}
	for i, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			if i != 0 {
				return fmt.Errorf("llm: system message must be first, found at position %d", i)
			}
		case models.RoleUser, models.RoleAssistant:
		default:
			return fmt.Errorf("llm: unknown role %q at position %d", m.Role, i)
		}
	}
	return nil
}

func convertMessages(messages []models.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		var role string
		switch m.Role {
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case models.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// attributionTransport adds the optional OpenRouter ranking headers to
// every request.
type attributionTransport struct {
	referer string
	title   string
	base    http.RoundTripper
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
