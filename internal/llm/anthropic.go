package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/distillabs/distill/internal/common"
)

const anthropicBaseURL = "https://api.anthropic.com"

// anthropicClient implements the generator interface for the Anthropic API.
type anthropicClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(apiKey string) *anthropicClient {
	return &anthropicClient{
		apiKey:  apiKey,
		baseURL: anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// generate sends a single-turn messages request to Anthropic.
func (c *anthropicClient) generate(ctx context.Context, r Request) (Response, error) {
	requestBody := map[string]any{
		"model":       r.Model,
		"max_tokens":  r.MaxTokens,
		"temperature": r.Temperature,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": r.Prompt,
			},
		},
	}
	if r.TopP != 0 {
		requestBody["top_p"] = r.TopP
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", strings.NewReader(string(jsonBody)))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &common.ProviderError{Provider: "anthropic", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &common.ProviderError{Provider: "anthropic", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, &common.ProviderError{
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, &common.ProviderError{Provider: "anthropic", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(response.Content) == 0 {
		return Response{}, &common.ProviderError{Provider: "anthropic", Err: fmt.Errorf("no content in response")}
	}
	if response.Content[0].Type != "text" {
		return Response{}, &common.ProviderError{Provider: "anthropic", Err: fmt.Errorf("unexpected content type %q", response.Content[0].Type)}
	}

	model := response.Model
	if model == "" {
		model = r.Model
	}

	// Anthropic reports input/output counts only; total is their sum.
	return Response{
		Content: response.Content[0].Text,
		Model:   model,
		Usage: &Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
			TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		},
	}, nil
}
