package model

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/distillabs/distill/internal/schema"
)

// Standardize coerces parsed record data into the types the schema
// declares and returns a Record ready for storage. Properties absent from
// the schema are dropped; missing or null required properties are an
// error. Semantic correctness of the values remains the model's problem.
func Standardize(data map[string]any, s *schema.Schema) (*Record, error) {
	record := &Record{
		SchemaTitle: s.Title,
		Data:        make(map[string]any, len(s.Properties)),
		CreatedAt:   time.Now().UTC(),
	}

	for key := range data {
		if s.Property(key) == nil {
			slog.Debug("dropping property not in schema", "property", key, "schema", s.Title)
		}
	}

	for _, p := range s.Properties {
		value, present := data[p.Name]
		if !present || value == nil {
			if p.Required {
				return nil, fmt.Errorf("required property %q has no value", p.Name)
			}
			record.Data[p.Name] = nil
			continue
		}

		coerced, err := coerceValue(value, p.Type)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		record.Data[p.Name] = coerced
	}

	return record, nil
}

// coerceValue converts a parsed JSON scalar into the declared type.
func coerceValue(value any, targetType string) (any, error) {
	switch targetType {
	case schema.TypeString:
		return coerceString(value)
	case schema.TypeInteger:
		return coerceInteger(value)
	case schema.TypeNumber:
		return coerceNumber(value)
	case schema.TypeBoolean:
		return coerceBoolean(value)
	default:
		return nil, fmt.Errorf("unsupported target type %q", targetType)
	}
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to string", value)
	}
}

func coerceInteger(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case string:
		n, err := ParseMagnitude(v)
		if err != nil {
			return nil, err
		}
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("value %q is not an integer", v)
		}
		return int64(n), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to integer", value)
	}
}

func coerceNumber(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		return ParseMagnitude(v)
	default:
		return nil, fmt.Errorf("cannot convert %T to number", value)
	}
}

func coerceBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "true", "1":
			return true, nil
		case "no", "n", "false", "0":
			return false, nil
		default:
			return nil, fmt.Errorf("cannot interpret %q as boolean", v)
		}
	default:
		return nil, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

// magnitudeSuffixes expands abbreviated magnitudes commonly emitted by
// models despite prompt instructions.
var magnitudeSuffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"bn", 1e9},
	{"b", 1e9},
	{"m", 1e6},
	{"k", 1e3},
}

// ParseMagnitude parses a numeric string, expanding k/m/b style suffixes
// and tolerating currency symbols and thousands separators.
func ParseMagnitude(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	multiplier := 1.0
	lower := strings.ToLower(cleaned)
	for _, m := range magnitudeSuffixes {
		if strings.HasSuffix(lower, m.suffix) {
			multiplier = m.multiplier
			cleaned = cleaned[:len(cleaned)-len(m.suffix)]
			break
		}
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a number", s)
	}

	return n * multiplier, nil
}
