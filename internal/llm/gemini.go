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

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// geminiClient implements the generator interface for the Gemini API.
type geminiClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(apiKey string) *geminiClient {
	return &geminiClient{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
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

// geminiResponse represents the Gemini API response structure.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// generate sends a single-turn generateContent request to Gemini.
func (c *geminiClient) generate(ctx context.Context, r Request) (Response, error) {
	generationConfig := map[string]any{
		"temperature":     r.Temperature,
		"maxOutputTokens": r.MaxTokens,
	}
	if r.TopP != 0 {
		generationConfig["topP"] = r.TopP
	}

	requestBody := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]string{
					{"text": r.Prompt},
				},
			},
		},
		"generationConfig": generationConfig,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, r.Model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &common.ProviderError{Provider: "gemini", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &common.ProviderError{Provider: "gemini", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, &common.ProviderError{
			Provider:   "gemini",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, &common.ProviderError{Provider: "gemini", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return Response{}, &common.ProviderError{Provider: "gemini", Err: fmt.Errorf("no candidates in response")}
	}

	model := response.ModelVersion
	if model == "" {
		model = r.Model
	}

	// Gemini reports prompt/candidate counts only; total is their sum.
	return Response{
		Content: response.Candidates[0].Content.Parts[0].Text,
		Model:   model,
		Usage: &Usage{
			PromptTokens:     response.UsageMetadata.PromptTokenCount,
			CompletionTokens: response.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      response.UsageMetadata.PromptTokenCount + response.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}
