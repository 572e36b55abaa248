// Package schema models the extraction schemas that drive prompt
// construction and record standardization.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Valid property types.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Property describes a single extractable field.
type Property struct {
	Name        string
	Type        string
	Description string
	Examples    []any
	Required    bool
}

// Schema describes the shape of records extracted from documents.
// Properties preserve their declaration order; a Schema is immutable once
// constructed.
type Schema struct {
	Title       string
	Description string
	Properties  []Property
}

// Property returns the named property, or nil if the schema doesn't have it.
func (s *Schema) Property(name string) *Property {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return &s.Properties[i]
		}
	}
	return nil
}

// Required returns the names of all required properties in declaration order.
func (s *Schema) Required() []string {
	var required []string
	for _, p := range s.Properties {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return required
}

// Validate checks the schema for structural problems.
func (s *Schema) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("schema title is required")
	}
	if len(s.Properties) == 0 {
		return fmt.Errorf("schema %q has no properties", s.Title)
	}

	seen := make(map[string]bool, len(s.Properties))
	for _, p := range s.Properties {
		if p.Name == "" {
			return fmt.Errorf("schema %q has a property with no name", s.Title)
		}
		if seen[p.Name] {
			return fmt.Errorf("schema %q declares property %q twice", s.Title, p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		default:
			return fmt.Errorf("property %q has unsupported type %q", p.Name, p.Type)
		}
	}

	return nil
}

// CompactJSON renders the schema as the compact JSON object embedded into
// extraction prompts, with properties in declaration order.
func (s *Schema) CompactJSON() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%s", key, data)
		return nil
	}

	if err := writeField("title", s.Title); err != nil {
		return "", err
	}
	if s.Description != "" {
		if err := writeField("description", s.Description); err != nil {
			return "", err
		}
	}

	buf.WriteString(`,"properties":{`)
	for i, p := range s.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		entry := map[string]string{"type": p.Type}
		if p.Description != "" {
			entry["description"] = p.Description
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "%q:%s", p.Name, data)
	}
	buf.WriteByte('}')

	required := s.Required()
	if len(required) > 0 {
		data, err := json.Marshal(required)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, `,"required":%s`, data)
	}

	buf.WriteByte('}')
	return buf.String(), nil
}
