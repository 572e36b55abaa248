package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/distillabs/distill/internal/common"
	"github.com/distillabs/distill/internal/model"
	"github.com/distillabs/distill/internal/service"
)

// SaveRecord persists a record and assigns its ID.
func (s *SQLiteStore) SaveRecord(ctx context.Context, record *model.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}

	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to encode record data: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO records (schema_title, data, model, prompt_tokens, completion_tokens, total_tokens, source_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SchemaTitle, string(data), record.Model,
		record.PromptTokens, record.CompletionTokens, record.TotalTokens,
		record.SourceBytes, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read record id: %w", err)
	}
	record.ID = id

	return nil
}

// GetRecord retrieves a single record by ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schema_title, data, model, prompt_tokens, completion_tokens, total_tokens, source_bytes, created_at
		FROM records WHERE id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// ListRecords returns records matching the filter, newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, filter service.RecordFilter) ([]model.Record, error) {
	query := `
		SELECT id, schema_title, data, model, prompt_tokens, completion_tokens, total_tokens, source_bytes, created_at
		FROM records`
	var args []any

	if filter.SchemaTitle != "" {
		query += ` WHERE schema_title = ?`
		args = append(args, filter.SchemaTitle)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// CountBySchema returns record counts grouped by schema title.
func (s *SQLiteStore) CountBySchema(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT schema_title, COUNT(*) FROM records GROUP BY schema_title`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var title string
		var count int
		if err := rows.Scan(&title, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[title] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return counts, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*model.Record, error) {
	var record model.Record
	var data string
	var modelName sql.NullString

	if err := row.Scan(&record.ID, &record.SchemaTitle, &data, &modelName,
		&record.PromptTokens, &record.CompletionTokens, &record.TotalTokens,
		&record.SourceBytes, &record.CreatedAt); err != nil {
		return nil, err
	}

	record.Model = modelName.String
	if err := json.Unmarshal([]byte(data), &record.Data); err != nil {
		return nil, fmt.Errorf("failed to decode record data: %w", err)
	}

	return &record, nil
}
