package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/distillabs/distill/internal/extract"
	"github.com/distillabs/distill/internal/llm"
	"github.com/distillabs/distill/internal/service"
)

// createLLMClient builds a provider client from configuration.
// This function is shared by the commands that need LLM functionality.
func createLLMClient() (*llm.Client, error) {
	cfg := llm.Config{
		OpenAIKey:    credentialFor("llm.openai_api_key", "OPENAI_API_KEY"),
		AnthropicKey: credentialFor("llm.anthropic_api_key", "ANTHROPIC_API_KEY"),
		GeminiKey:    credentialFor("llm.gemini_api_key", "GEMINI_API_KEY"),
		Model:        viper.GetString("llm.model"),
		Temperature:  viper.GetFloat64("llm.temperature"),
		MaxTokens:    viper.GetInt("llm.max_tokens"),
		RateLimit:    viper.GetFloat64("llm.rate_limit"),
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	return llm.NewClient(cfg, slog.Default())
}

// credentialFor reads an API key from config, falling back to the
// environment variable.
func credentialFor(configKey, envVar string) string {
	if key := viper.GetString(configKey); key != "" {
		return key
	}
	return os.Getenv(envVar)
}

// createExtractor wires the provider client, retry policy, and optional
// record store into an extractor.
func createExtractor(client *llm.Client, store service.RecordStore) (*extract.Extractor, error) {
	retryOpts := service.RetryOptions{
		MaxAttempts:  viper.GetInt("llm.max_retries"),
		InitialDelay: viper.GetDuration("llm.retry_delay"),
		Multiplier:   viper.GetFloat64("llm.retry_multiplier"),
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return extract.New(client, store, slog.Default(), retryOpts)
}

// extractOptions assembles per-run options from configuration and flags.
func extractOptions() extract.Options {
	opts := extract.Options{
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		TopP:        viper.GetFloat64("llm.top_p"),
		BatchSize:   viper.GetInt("extract.batch_size"),
		Template:    viper.GetString("extract.template"),
	}
	return opts
}
