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

const openAIBaseURL = "https://api.openai.com"

// openAIClient implements the generator interface for the OpenAI API.
type openAIClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(apiKey string) *openAIClient {
	return &openAIClient{
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
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

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Created int64 `json:"created"`
}

// generate sends a single-turn chat completion request to OpenAI.
func (c *openAIClient) generate(ctx context.Context, r Request) (Response, error) {
	requestBody := map[string]any{
		"model": r.Model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": r.Prompt,
			},
		},
		"temperature": r.Temperature,
		"max_tokens":  r.MaxTokens,
	}
	if r.TopP != 0 {
		requestBody["top_p"] = r.TopP
	}
	if r.FrequencyPenalty != 0 {
		requestBody["frequency_penalty"] = r.FrequencyPenalty
	}
	if r.PresencePenalty != 0 {
		requestBody["presence_penalty"] = r.PresencePenalty
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &common.ProviderError{Provider: "openai", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &common.ProviderError{Provider: "openai", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, &common.ProviderError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, &common.ProviderError{Provider: "openai", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(response.Choices) == 0 {
		return Response{}, &common.ProviderError{Provider: "openai", Err: fmt.Errorf("no completion choices returned")}
	}

	model := response.Model
	if model == "" {
		model = r.Model
	}

	return Response{
		Content: response.Choices[0].Message.Content,
		Model:   model,
		Usage: &Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		},
	}, nil
}
