// Package service defines the interfaces shared across application services.
package service

import (
	"context"
	"time"

	"github.com/distillabs/distill/internal/model"
)

// RecordFilter defines filtering options for record queries.
type RecordFilter struct {
	SchemaTitle string
	Limit       int
	Offset      int
}

// RecordStore defines the contract for the record persistence layer.
type RecordStore interface {
	SaveRecord(ctx context.Context, record *model.Record) error
	GetRecord(ctx context.Context, id int64) (*model.Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error)
	CountBySchema(ctx context.Context) (map[string]int, error)
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ExtractionStats shows the results of a batch extraction run.
type ExtractionStats struct {
	TotalDocuments   int
	TotalBatches     int
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}
