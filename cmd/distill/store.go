package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/distillabs/distill/internal/config"
	"github.com/distillabs/distill/internal/extract"
	"github.com/distillabs/distill/internal/llm"
	"github.com/distillabs/distill/internal/service"
	"github.com/distillabs/distill/internal/storage"
)

// openStore opens the record database and brings it up to date.
func openStore(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// buildExtractor assembles an extractor, opening the record database
// unless persistence was disabled. The returned store is nil when noSave
// is set; the caller owns closing it otherwise.
func buildExtractor(ctx context.Context, client *llm.Client, noSave bool) (*extract.Extractor, *storage.SQLiteStore, error) {
	var (
		store       *storage.SQLiteStore
		recordStore service.RecordStore
	)
	if !noSave {
		var err error
		store, err = openStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		recordStore = store
	}

	extractor, err := createExtractor(client, recordStore)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}

	return extractor, store, nil
}
