package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/distillabs/distill/internal/schema"
)

// Template placeholders, substituted in a single pass over the template.
const (
	PlaceholderDocument = "{document}"
	PlaceholderSchema   = "{schema}"
	PlaceholderDetails  = "{property_details}"
)

// DefaultTemplate is the built-in extraction prompt template.
const DefaultTemplate = `Extract structured data from the document below into a single JSON object.

Document:
{document}

Target schema (JSON):
{schema}

Property details:
{property_details}

Instructions:
1. Respond with ONLY one JSON object. No explanatory text, no markdown fences.
2. Use null for any property whose value is not present in the document.
3. Convert abbreviated magnitudes to plain numbers (e.g. "2.5k" -> 2500, "3M" -> 3000000, "1.2B" -> 1200000000).
4. Convert yes/no style answers to JSON booleans (true/false).
5. Never add properties that are not in the schema.`

// BuildPrompt renders a document and schema into an extraction prompt.
// An empty template selects DefaultTemplate; a custom template must contain
// all three placeholder tokens.
func BuildPrompt(document string, s *schema.Schema, template string) (string, error) {
	if template == "" {
		template = DefaultTemplate
	} else {
		for _, token := range []string{PlaceholderDocument, PlaceholderSchema, PlaceholderDetails} {
			if !strings.Contains(template, token) {
				return "", fmt.Errorf("template is missing the %s placeholder", token)
			}
		}
	}

	compact, err := s.CompactJSON()
	if err != nil {
		return "", fmt.Errorf("failed to render schema: %w", err)
	}

	// One pass over the template so placeholder tokens inside the document
	// or schema text are never themselves substituted.
	replacer := strings.NewReplacer(
		PlaceholderDocument, strings.TrimSpace(document),
		PlaceholderSchema, compact,
		PlaceholderDetails, propertyDetails(s),
	)

	return replacer.Replace(template), nil
}

// propertyDetails renders the per-property detail block in schema
// declaration order.
func propertyDetails(s *schema.Schema) string {
	var b strings.Builder
	for _, p := range s.Properties {
		requirement := "optional"
		if p.Required {
			requirement = "required"
		}

		fmt.Fprintf(&b, "- %s (%s, %s)", p.Name, p.Type, requirement)
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}

		if len(p.Examples) > 0 {
			literals := make([]string, 0, len(p.Examples))
			for _, ex := range p.Examples {
				data, err := json.Marshal(ex)
				if err != nil {
					continue
				}
				literals = append(literals, string(data))
			}
			fmt.Fprintf(&b, " Examples: %s", strings.Join(literals, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
