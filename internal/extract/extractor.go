// Package extract drives document extraction through the LLM provider
// client and standardizes the results into records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/distillabs/distill/internal/common"
	"github.com/distillabs/distill/internal/llm"
	"github.com/distillabs/distill/internal/model"
	"github.com/distillabs/distill/internal/schema"
	"github.com/distillabs/distill/internal/service"
)

// Generator is the language-model dependency of the extractor.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Options configures a single extraction or a batch run.
type Options struct {
	Progress         func()
	Model            string
	Template         string
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	MaxTokens        int
	BatchSize        int
}

// Extractor turns documents into schema-conformant records.
type Extractor struct {
	client    Generator
	store     service.RecordStore
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// New creates an extractor. The store may be nil, in which case records
// are returned but not persisted.
func New(client Generator, store service.RecordStore, logger *slog.Logger, retryOpts service.RetryOptions) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: generator client is required", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		client:    client,
		store:     store,
		logger:    logger,
		retryOpts: retryOpts,
	}, nil
}

// Extract runs one document through prompt construction, generation, and
// standardization. Provider failures are retried; resolution and parse
// failures are surfaced immediately.
func (e *Extractor) Extract(ctx context.Context, document string, s *schema.Schema, opts Options) (*model.Record, error) {
	prompt, err := llm.BuildPrompt(document, s, opts.Template)
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		Prompt:           prompt,
		Model:            opts.Model,
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		TopP:             opts.TopP,
		FrequencyPenalty: opts.FrequencyPenalty,
		PresencePenalty:  opts.PresencePenalty,
	}

	var resp llm.Response
	err = common.WithRetry(ctx, func() error {
		r, genErr := e.client.Generate(ctx, req)
		if genErr != nil {
			if !common.IsRetryable(genErr) {
				return &common.RetryableError{Err: genErr, Retryable: false}
			}
			return genErr
		}
		resp = r
		return nil
	}, e.retryOpts)
	if err != nil {
		e.logger.Error("generation failed",
			"schema", s.Title,
			"document_length", len(document),
			"error", err)
		return nil, unwrapRetryable(err)
	}

	data, err := llm.ExtractObject(resp.Content)
	if err != nil {
		e.logger.Error("response parsing failed",
			"schema", s.Title,
			"document_length", len(document),
			"model", resp.Model,
			"error", err)
		return nil, err
	}

	record, err := model.Standardize(data, s)
	if err != nil {
		e.logger.Error("standardization failed",
			"schema", s.Title,
			"document_length", len(document),
			"error", err)
		return nil, fmt.Errorf("standardization failed: %w", err)
	}

	record.Model = resp.Model
	record.SourceBytes = len(document)
	if resp.Usage != nil {
		record.PromptTokens = resp.Usage.PromptTokens
		record.CompletionTokens = resp.Usage.CompletionTokens
		record.TotalTokens = resp.Usage.TotalTokens
	}

	if e.store != nil {
		if err := e.store.SaveRecord(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save record: %w", err)
		}
	}

	e.logger.Info("document extracted",
		"schema", s.Title,
		"model", record.Model,
		"document_length", len(document),
		"total_tokens", record.TotalTokens)

	return record, nil
}

// unwrapRetryable strips the non-retryable marker so callers see the
// original typed error.
func unwrapRetryable(err error) error {
	var retryableErr *common.RetryableError
	if errors.As(err, &retryableErr) && !retryableErr.Retryable {
		return retryableErr.Err
	}
	return err
}
