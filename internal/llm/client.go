// Package llm dispatches generation requests to external language-model
// providers behind rate limiting and a unified request/response shape.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/distillabs/distill/internal/common"
)

// Request is a single-turn generation request. It is constructed fresh per
// call and never mutated after dispatch.
type Request struct {
	Prompt           string
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Usage holds normalized token accounting for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the normalized result of one successful generation call.
type Response struct {
	Content string
	Model   string
	Usage   *Usage
}

// Config holds configuration for the provider client.
type Config struct {
	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string
	Model        string
	Temperature  float64
	MaxTokens    int
	RateLimit    float64 // requests per second
}

// generator is the adapter contract each provider backend implements.
type generator interface {
	generate(ctx context.Context, req Request) (Response, error)
}

// Client dispatches generation requests to the provider resolved from the
// request's model identifier. All calls through one Client serialize
// through the same pacer, regardless of provider target.
type Client struct {
	openai    generator
	anthropic generator
	gemini    generator
	pacer     *pacer
	logger    *slog.Logger
	defaults  Config
}

// NewClient creates a provider client. At least one provider credential
// must be configured.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.OpenAIKey == "" && cfg.AnthropicKey == "" && cfg.GeminiKey == "" {
		return nil, common.ErrNoCredentials
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		pacer:    newPacer(cfg.RateLimit),
		logger:   logger,
		defaults: cfg,
	}

	if cfg.OpenAIKey != "" {
		c.openai = newOpenAIClient(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		c.anthropic = newAnthropicClient(cfg.AnthropicKey)
	}
	if cfg.GeminiKey != "" {
		c.gemini = newGeminiClient(cfg.GeminiKey)
	}

	return c, nil
}

// Generate resolves the request's provider, waits out the rate limiter,
// and performs exactly one outbound call.
func (c *Client) Generate(ctx context.Context, req Request) (Response, error) {
	c.applyDefaults(&req)

	provider, err := ResolveProvider(req.Model)
	if err != nil {
		return Response{}, err
	}

	adapter, err := c.adapterFor(provider)
	if err != nil {
		return Response{}, err
	}

	if err := c.pacer.wait(ctx); err != nil {
		return Response{}, err
	}

	c.logger.Debug("dispatching generation request",
		"provider", provider.String(),
		"model", req.Model,
		"prompt_length", len(req.Prompt))

	resp, err := adapter.generate(ctx, req)
	if err != nil {
		c.logger.Error("generation request failed",
			"provider", provider.String(),
			"model", req.Model,
			"error", err)
		return Response{}, err
	}

	c.logger.Info("generation request completed",
		"provider", provider.String(),
		"model", resp.Model,
		"content_length", len(resp.Content))

	return resp, nil
}

// adapterFor returns the backend for a resolved provider, failing when the
// provider has no credentials configured.
func (c *Client) adapterFor(p Provider) (generator, error) {
	var adapter generator
	switch p {
	case ProviderOpenAI:
		adapter = c.openai
	case ProviderAnthropic:
		adapter = c.anthropic
	case ProviderGemini:
		adapter = c.gemini
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownProvider, p)
	}

	if adapter == nil {
		return nil, fmt.Errorf("%w for provider %s", common.ErrNoCredentials, p)
	}
	return adapter, nil
}

func (c *Client) applyDefaults(req *Request) {
	if req.Model == "" {
		req.Model = c.defaults.Model
	}
	if req.Temperature == 0 {
		req.Temperature = c.defaults.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.defaults.MaxTokens
	}
}
