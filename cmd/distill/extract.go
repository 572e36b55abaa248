package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/distillabs/distill/internal/cli"
	"github.com/distillabs/distill/internal/schema"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract a record from a single document",
		Long: `Extract a schema-conformant record from one document.

The document is read from the given file, or from stdin when the file
argument is "-" or omitted.

Examples:
  distill extract --schema company.yaml report.txt
  cat report.txt | distill extract --schema company.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().StringP("schema", "s", "", "schema file (required)")
	cmd.Flags().String("model", "", "model identifier override")
	cmd.Flags().Bool("no-save", false, "print the record without persisting it")
	_ = cmd.MarkFlagRequired("schema")

	_ = viper.BindPFlag("llm.model", cmd.Flags().Lookup("model"))

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	schemaPath, _ := cmd.Flags().GetString("schema")
	noSave, _ := cmd.Flags().GetBool("no-save")

	s, err := schema.Load(schemaPath)
	if err != nil {
		return err
	}

	document, err := readDocument(args)
	if err != nil {
		return err
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

	record, err := extractor.Extract(ctx, document, s, extractOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError("extraction failed"))
		return err
	}

	output, err := json.MarshalIndent(record.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render record: %w", err)
	}
	fmt.Println(string(output))

	if !noSave {
		fmt.Fprintln(os.Stderr, cli.FormatSuccess(fmt.Sprintf("record %d saved (%s)", record.ID, record.SchemaTitle)))
	}

	return nil
}

// readDocument reads the document from the file argument or stdin.
func readDocument(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read document from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}
