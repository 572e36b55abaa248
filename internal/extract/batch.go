package extract

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/distillabs/distill/internal/model"
	"github.com/distillabs/distill/internal/schema"
	"github.com/distillabs/distill/internal/service"
)

// defaultBatchSize bounds intra-batch concurrency when the caller doesn't.
const defaultBatchSize = 5

// ExtractBatch extracts every document, preserving input order in the
// returned slice. Documents are processed in consecutive chunks of at most
// BatchSize; chunks run strictly sequentially while documents within a
// chunk run concurrently. The first failure aborts the whole call and no
// partial result is returned. Stats describe the completed run and are
// zero on failure.
func (e *Extractor) ExtractBatch(ctx context.Context, documents []string, s *schema.Schema, opts Options) ([]model.Record, service.ExtractionStats, error) {
	if len(documents) == 0 {
		return nil, service.ExtractionStats{}, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	batchCount := (len(documents) + batchSize - 1) / batchSize
	e.logger.Info("starting batch extraction",
		"schema", s.Title,
		"documents", len(documents),
		"batch_size", batchSize,
		"batches", batchCount)

	start := time.Now()
	records := make([]model.Record, len(documents))

	for batch := 0; batch < batchCount; batch++ {
		first := batch * batchSize
		end := min(first+batchSize, len(documents))

		g, gctx := errgroup.WithContext(ctx)
		for i := first; i < end; i++ {
			index := i
			document := documents[i]
			g.Go(func() error {
				record, err := e.Extract(gctx, document, s, opts)
				if err != nil {
					e.logger.Error("batch document failed",
						"batch", batch,
						"document_index", index,
						"document_length", len(document),
						"schema", s.Title,
						"error", err)
					return err
				}

				records[index] = *record
				if opts.Progress != nil {
					opts.Progress()
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, service.ExtractionStats{}, err
		}

		e.logger.Debug("batch completed", "batch", batch, "documents", end-first)
	}

	stats := service.ExtractionStats{
		TotalDocuments: len(documents),
		TotalBatches:   batchCount,
		Duration:       time.Since(start),
	}
	for _, record := range records {
		stats.PromptTokens += record.PromptTokens
		stats.CompletionTokens += record.CompletionTokens
	}

	return records, stats, nil
}
