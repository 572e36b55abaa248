package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/distillabs/distill/internal/common"
)

// fencedJSONPattern matches a markdown code fence explicitly tagged as JSON.
var fencedJSONPattern = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// ExtractObject recovers a single flat JSON object from a free-form model
// response. The fenced block is preferred over a bare brace span because
// models frequently wrap JSON in explanatory prose, and prose can contain
// stray braces.
func ExtractObject(raw string) (map[string]any, error) {
	if match := fencedJSONPattern.FindStringSubmatch(raw); match != nil {
		if obj, ok := parseObject(match[1]); ok {
			return validateFlat(obj, raw)
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if obj, ok := parseObject(raw[start : end+1]); ok {
			return validateFlat(obj, raw)
		}
	}

	return nil, &common.ParseError{Reason: "no JSON object found in response", Raw: raw}
}

// parseObject attempts to decode text as a JSON object, rejecting arrays
// and scalars.
func parseObject(text string) (map[string]any, bool) {
	decoder := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))

	var obj map[string]any
	if err := decoder.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

// validateFlat enforces that every value is a JSON scalar or null. Record
// data is a flat mapping; nested objects and arrays are parse errors, not
// silently accepted shapes.
func validateFlat(obj map[string]any, raw string) (map[string]any, error) {
	for key, value := range obj {
		switch value.(type) {
		case string, float64, bool, nil:
		default:
			return nil, &common.ParseError{
				Reason: "property " + key + " has a non-scalar value",
				Raw:    raw,
			}
		}
	}
	return obj, nil
}
