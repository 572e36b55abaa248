package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// propertySpec mirrors the on-disk property shape.
type propertySpec struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Examples    []any  `yaml:"examples"`
	Required    bool   `yaml:"required"`
}

// Load reads and validates a schema from a YAML (or JSON) file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a schema document. Property order follows the source file,
// which is why the properties mapping is walked as a yaml.Node rather than
// decoded into a Go map.
func Parse(data []byte) (*Schema, error) {
	var doc struct {
		Title       string    `yaml:"title"`
		Description string    `yaml:"description"`
		Properties  yaml.Node `yaml:"properties"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	s := &Schema{
		Title:       doc.Title,
		Description: doc.Description,
	}

	if doc.Properties.Kind != 0 {
		if doc.Properties.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("properties must be a mapping")
		}

		// A mapping node stores keys and values as alternating children.
		for i := 0; i+1 < len(doc.Properties.Content); i += 2 {
			keyNode := doc.Properties.Content[i]
			valNode := doc.Properties.Content[i+1]

			var spec propertySpec
			if err := valNode.Decode(&spec); err != nil {
				return nil, fmt.Errorf("failed to parse property %q: %w", keyNode.Value, err)
			}

			s.Properties = append(s.Properties, Property{
				Name:        keyNode.Value,
				Type:        spec.Type,
				Description: spec.Description,
				Examples:    spec.Examples,
				Required:    spec.Required,
			})
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
