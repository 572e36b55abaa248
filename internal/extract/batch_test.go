package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distillabs/distill/internal/common"
	"github.com/distillabs/distill/internal/llm"
)

// documentResponse echoes the document back as the extracted name so
// result ordering can be checked against the input.
func documentResponse(req llm.Request) (llm.Response, error) {
	// The prompt embeds the document between the header and the schema.
	lines := strings.Split(req.Prompt, "\n")
	var doc string
	for i, line := range lines {
		if line == "Document:" && i+1 < len(lines) {
			doc = lines[i+1]
			break
		}
	}
	return llm.Response{
		Content: fmt.Sprintf(`{"name": %q}`, doc),
		Model:   "gpt-4o",
	}, nil
}

func TestExtractBatchPreservesInputOrder(t *testing.T) {
	gen := &mockGenerator{respond: func(req llm.Request) (llm.Response, error) {
		// Adversarial completion order: later documents finish first.
		if strings.Contains(req.Prompt, "doc-0") {
			time.Sleep(30 * time.Millisecond)
		} else if strings.Contains(req.Prompt, "doc-1") {
			time.Sleep(15 * time.Millisecond)
		}
		return documentResponse(req)
	}}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	documents := []string{"doc-0", "doc-1", "doc-2", "doc-3", "doc-4"}
	records, _, err := extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{
		Model:     "gpt-4o",
		BatchSize: 3,
	})
	require.NoError(t, err)
	require.Len(t, records, len(documents))

	for i, record := range records {
		assert.Equal(t, documents[i], record.Data["name"], "record %d out of order", i)
	}
}

func TestExtractBatchChunksSequentially(t *testing.T) {
	var (
		mu          sync.Mutex
		inFlight    int
		maxInFlight int
	)

	gen := &mockGenerator{respond: func(req llm.Request) (llm.Response, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		return documentResponse(req)
	}}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	documents := []string{"a", "b", "c", "d", "e"}
	records, _, err := extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{
		Model:     "gpt-4o",
		BatchSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, 5, gen.callCount())
	assert.LessOrEqual(t, maxInFlight, 2, "no more than BatchSize documents may run at once")
}

func TestExtractBatchFailFast(t *testing.T) {
	gen := &mockGenerator{respond: func(req llm.Request) (llm.Response, error) {
		if strings.Contains(req.Prompt, "poisoned") {
			return llm.Response{}, &common.RetryableError{Err: errors.New("bad document"), Retryable: false}
		}
		return documentResponse(req)
	}}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	documents := []string{"good-0", "poisoned", "good-1", "good-2", "good-3", "good-4"}
	records, stats, err := extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{
		Model:     "gpt-4o",
		BatchSize: 2,
	})
	require.Error(t, err)
	assert.Nil(t, records, "a failed batch must not return partial results")
	assert.Zero(t, stats, "a failed batch must not report stats")

	// The failure is in the first chunk; later chunks must never start.
	assert.LessOrEqual(t, gen.callCount(), 2)
}

func TestExtractBatchEmptyInput(t *testing.T) {
	gen := &mockGenerator{respond: documentResponse}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	records, stats, err := extractor.ExtractBatch(context.Background(), nil, extractionSchema(), Options{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Zero(t, stats)
}

func TestExtractBatchDefaultBatchSize(t *testing.T) {
	gen := &mockGenerator{respond: documentResponse}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	documents := make([]string, 7)
	for i := range documents {
		documents[i] = fmt.Sprintf("doc-%d", i)
	}

	records, stats, err := extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Len(t, records, 7)
	assert.Equal(t, 2, stats.TotalBatches, "7 documents at the default size of 5 means 2 batches")
}

func TestExtractBatchReportsProgress(t *testing.T) {
	gen := &mockGenerator{respond: documentResponse}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	var progress atomic.Int64
	documents := []string{"a", "b", "c"}
	_, _, err = extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{
		Model:     "gpt-4o",
		BatchSize: 2,
		Progress:  func() { progress.Add(1) },
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), progress.Load())
}

func TestExtractBatchSavesAllRecords(t *testing.T) {
	gen := &mockGenerator{respond: documentResponse}
	store := &memoryStore{}

	extractor, err := New(gen, store, nil, testRetryOpts())
	require.NoError(t, err)

	documents := []string{"a", "b", "c", "d"}
	records, _, err := extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{
		Model:     "gpt-4o",
		BatchSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Len(t, store.records, 4)
}

func TestExtractBatchReportsStats(t *testing.T) {
	gen := &mockGenerator{respond: func(req llm.Request) (llm.Response, error) {
		resp, err := documentResponse(req)
		resp.Usage = &llm.Usage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14}
		return resp, err
	}}

	extractor, err := New(gen, nil, nil, testRetryOpts())
	require.NoError(t, err)

	documents := []string{"a", "b", "c", "d", "e"}
	_, stats, err := extractor.ExtractBatch(context.Background(), documents, extractionSchema(), Options{
		Model:     "gpt-4o",
		BatchSize: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalDocuments)
	assert.Equal(t, 3, stats.TotalBatches)
	assert.Equal(t, 50, stats.PromptTokens)
	assert.Equal(t, 20, stats.CompletionTokens)
	assert.Greater(t, stats.Duration, time.Duration(0))
}
