package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/distillabs/distill/internal/cli"
	"github.com/distillabs/distill/internal/schema"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [files or directory]",
		Short: "Extract records from many documents",
		Long: `Extract schema-conformant records from a set of documents.

Arguments may be individual files or a single directory, in which case
every regular file in the directory is treated as one document. Documents
are processed in bounded concurrent batches and results are stored in
input order. The run stops at the first failure.

Examples:
  distill batch --schema company.yaml reports/
  distill batch --schema company.yaml a.txt b.txt c.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().StringP("schema", "s", "", "schema file (required)")
	cmd.Flags().String("model", "", "model identifier override")
	cmd.Flags().Int("batch-size", 0, "maximum documents processed concurrently")
	cmd.Flags().Bool("no-save", false, "extract without persisting records")
	_ = cmd.MarkFlagRequired("schema")

	_ = viper.BindPFlag("llm.model", cmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("extract.batch_size", cmd.Flags().Lookup("batch-size"))

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	schemaPath, _ := cmd.Flags().GetString("schema")
	noSave, _ := cmd.Flags().GetBool("no-save")

	s, err := schema.Load(schemaPath)
	if err != nil {
		return err
	}

	paths, err := collectDocumentPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println(cli.FormatWarning("no documents found"))
		return nil
	}

	documents := make([]string, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", path, err)
		}
		documents[i] = string(data)
	}

	client, err := createLLMClient()
	if err != nil {
		return err
	}

	extractor, store, err := buildExtractor(ctx, client, noSave)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("Failed to close database", "error", closeErr)
			}
		}()
	}

	bar := progressbar.NewOptions(len(documents),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	opts := extractOptions()
	opts.Progress = func() {
		_ = bar.Add(1)
	}

	_, stats, err := extractor.ExtractBatch(ctx, documents, s, opts)
	_ = bar.Finish()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError("batch extraction failed"))
		return err
	}

	summary := []string{
		fmt.Sprintf("Documents:    %d", stats.TotalDocuments),
		fmt.Sprintf("Batches:      %d", stats.TotalBatches),
		fmt.Sprintf("Schema:       %s", s.Title),
		fmt.Sprintf("Total tokens: %d", stats.PromptTokens+stats.CompletionTokens),
		fmt.Sprintf("Duration:     %s", stats.Duration.Round(time.Millisecond)),
	}
	if noSave {
		summary = append(summary, cli.SubtleStyle.Render("Records were not saved (--no-save)"))
	}

	fmt.Println(cli.RenderBox("Batch Complete", strings.Join(summary, "\n")))

	return nil
}

// collectDocumentPaths expands a single directory argument into its
// regular files, sorted by name. Multiple file arguments are kept in the
// order given.
func collectDocumentPaths(args []string) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", args[0], err)
		}
		if info.IsDir() {
			entries, err := os.ReadDir(args[0])
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", args[0], err)
			}

			var paths []string
			for _, entry := range entries {
				if entry.Type().IsRegular() {
					paths = append(paths, filepath.Join(args[0], entry.Name()))
				}
			}
			sort.Strings(paths)
			return paths, nil
		}
	}

	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("directory %s cannot be mixed with file arguments", path)
		}
	}

	return args, nil
}
