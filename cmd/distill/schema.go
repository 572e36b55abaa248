package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distillabs/distill/internal/cli"
	"github.com/distillabs/distill/internal/llm"
	"github.com/distillabs/distill/internal/schema"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and validate extraction schemas",
	}

	cmd.AddCommand(schemaShowCmd())
	cmd.AddCommand(schemaPromptCmd())

	return cmd
}

func schemaShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Validate a schema file and show its properties",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchemaShow,
	}

	cmd.Flags().Bool("json", false, "print the compact JSON form sent to the model")

	return cmd
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := schema.Load(args[0])
	if err != nil {
		fmt.Println(cli.FormatError("schema is invalid"))
		return err
	}

	if asJSON {
		compact, err := s.CompactJSON()
		if err != nil {
			return fmt.Errorf("failed to render schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), compact)
		return nil
	}

	fmt.Println(cli.FormatTitle(s.Title))
	if s.Description != "" {
		fmt.Println(cli.SubtleStyle.Render(s.Description))
		fmt.Println()
	}

	header := fmt.Sprintf("%-24s %-10s %-10s %s", "PROPERTY", "TYPE", "REQUIRED", "DESCRIPTION")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, prop := range s.Properties {
		required := ""
		if prop.Required {
			required = "yes"
		}
		row := fmt.Sprintf("%-24s %-10s %-10s %s",
			truncate(prop.Name, 24),
			prop.Type,
			required,
			truncate(prop.Description, 48),
		)
		fmt.Println(cli.TableCellStyle.Render(row))
	}

	fmt.Println()
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("schema is valid (%d properties, %d required)",
		len(s.Properties), len(s.Required()))))

	return nil
}

func schemaPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt [file]",
		Short: "Preview the extraction prompt for a schema",
		Long: `Render the full prompt that would be sent to the model for the
given schema. The document is read from the file argument or stdin; when
neither is provided a placeholder document is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSchemaPrompt,
	}

	cmd.Flags().StringP("schema", "s", "", "schema file (required)")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runSchemaPrompt(cmd *cobra.Command, args []string) error {
	schemaPath, _ := cmd.Flags().GetString("schema")

	s, err := schema.Load(schemaPath)
	if err != nil {
		return err
	}

	document := "(document text)"
	if len(args) > 0 {
		document, err = readDocument(args)
		if err != nil {
			return err
		}
		document = strings.TrimSpace(document)
	}

	prompt, err := llm.BuildPrompt(document, s, "")
	if err != nil {
		return err
	}

	fmt.Println(prompt)
	return nil
}
