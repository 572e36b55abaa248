package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyYAML = `title: company
description: Company facts from an annual report
properties:
  name:
    type: string
    description: Legal company name
    required: true
  employees:
    type: integer
    examples: [250, "1.2k"]
  revenue:
    type: number
    description: Annual revenue in USD
  public:
    type: boolean
`

func TestParsePreservesPropertyOrder(t *testing.T) {
	s, err := Parse([]byte(companyYAML))
	require.NoError(t, err)

	assert.Equal(t, "company", s.Title)
	assert.Equal(t, "Company facts from an annual report", s.Description)

	names := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"name", "employees", "revenue", "public"}, names)
}

func TestParsePropertyFields(t *testing.T) {
	s, err := Parse([]byte(companyYAML))
	require.NoError(t, err)

	name := s.Property("name")
	require.NotNil(t, name)
	assert.Equal(t, TypeString, name.Type)
	assert.Equal(t, "Legal company name", name.Description)
	assert.True(t, name.Required)

	employees := s.Property("employees")
	require.NotNil(t, employees)
	assert.False(t, employees.Required)
	assert.Len(t, employees.Examples, 2)

	assert.Nil(t, s.Property("missing"))
}

func TestParseRejectsInvalidSchemas(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing title", yaml: "properties:\n  x:\n    type: string\n"},
		{name: "no properties", yaml: "title: empty\n"},
		{name: "unsupported type", yaml: "title: t\nproperties:\n  x:\n    type: object\n"},
		{name: "properties not a mapping", yaml: "title: t\nproperties:\n  - name\n"},
		{name: "not yaml", yaml: "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidateDuplicateProperty(t *testing.T) {
	s := &Schema{
		Title: "t",
		Properties: []Property{
			{Name: "x", Type: TypeString},
			{Name: "x", Type: TypeInteger},
		},
	}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twice")
}

func TestRequired(t *testing.T) {
	s, err := Parse([]byte(companyYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, s.Required())
}

func TestCompactJSON(t *testing.T) {
	s, err := Parse([]byte(companyYAML))
	require.NoError(t, err)

	compact, err := s.CompactJSON()
	require.NoError(t, err)

	assert.True(t, len(compact) > 0)
	assert.Contains(t, compact, `"title":"company"`)
	assert.Contains(t, compact, `"required":["name"]`)

	// Properties must appear in declaration order.
	nameIdx := strings.Index(compact, `"name":{`)
	employeesIdx := strings.Index(compact, `"employees":{`)
	publicIdx := strings.Index(compact, `"public":{`)
	require.GreaterOrEqual(t, nameIdx, 0)
	assert.Less(t, nameIdx, employeesIdx)
	assert.Less(t, employeesIdx, publicIdx)
}

func TestCompactJSONOmitsEmptyDescription(t *testing.T) {
	s := &Schema{
		Title:      "t",
		Properties: []Property{{Name: "x", Type: TypeString}},
	}

	compact, err := s.CompactJSON()
	require.NoError(t, err)
	assert.NotContains(t, compact, "description")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "company.yaml")
	require.NoError(t, os.WriteFile(path, []byte(companyYAML), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "company", s.Title)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
