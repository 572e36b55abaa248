package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distillabs/distill/internal/cli"
	"github.com/distillabs/distill/internal/service"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect stored extraction records",
	}

	cmd.AddCommand(recordsListCmd())
	cmd.AddCommand(recordsShowCmd())
	cmd.AddCommand(recordsStatsCmd())

	return cmd
}

func recordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, newest first",
		RunE:  runRecordsList,
	}

	cmd.Flags().StringP("schema", "s", "", "only show records for this schema title")
	cmd.Flags().Int("limit", 20, "maximum records to show")
	cmd.Flags().Int("offset", 0, "records to skip")

	return cmd
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	schemaTitle, _ := cmd.Flags().GetString("schema")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	records, err := store.ListRecords(ctx, service.RecordFilter{
		SchemaTitle: schemaTitle,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No records found."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Records"))

	header := fmt.Sprintf("%-6s %-24s %-24s %-8s %s", "ID", "SCHEMA", "MODEL", "TOKENS", "CREATED")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, record := range records {
		row := fmt.Sprintf("%-6d %-24s %-24s %-8d %s",
			record.ID,
			truncate(record.SchemaTitle, 24),
			truncate(record.Model, 24),
			record.TotalTokens,
			record.CreatedAt.Format("2006-01-02 15:04"),
		)
		fmt.Println(cli.TableCellStyle.Render(row))
	}

	return nil
}

func recordsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecordsShow,
	}
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", args[0], err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	record, err := store.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(record.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render record: %w", err)
	}

	meta := []string{
		fmt.Sprintf("Schema:  %s", record.SchemaTitle),
		fmt.Sprintf("Model:   %s", record.Model),
		fmt.Sprintf("Tokens:  %d (prompt %d, completion %d)", record.TotalTokens, record.PromptTokens, record.CompletionTokens),
		fmt.Sprintf("Source:  %d bytes", record.SourceBytes),
		fmt.Sprintf("Created: %s", record.CreatedAt.Format("2006-01-02 15:04:05")),
	}

	fmt.Println(cli.RenderBox(fmt.Sprintf("Record %d", record.ID), strings.Join(meta, "\n")))
	fmt.Println(string(output))

	return nil
}

func recordsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per schema",
		RunE:  runRecordsStats,
	}
}

func runRecordsStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	counts, err := store.CountBySchema(ctx)
	if err != nil {
		return err
	}

	if len(counts) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No records found."))
		return nil
	}

	titles := make([]string, 0, len(counts))
	for title := range counts {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	var lines []string
	total := 0
	for _, title := range titles {
		lines = append(lines, fmt.Sprintf("%-32s %d", title, counts[title]))
		total += counts[title]
	}
	lines = append(lines, cli.SubtleStyle.Render(fmt.Sprintf("%-32s %d", "total", total)))

	fmt.Println(cli.RenderBox("Records by Schema", strings.Join(lines, "\n")))

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
