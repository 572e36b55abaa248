package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distillabs/distill/internal/schema"
)

func companySchema() *schema.Schema {
	return &schema.Schema{
		Title: "company",
		Properties: []schema.Property{
			{Name: "name", Type: schema.TypeString, Required: true},
			{Name: "employees", Type: schema.TypeInteger},
			{Name: "revenue", Type: schema.TypeNumber},
			{Name: "public", Type: schema.TypeBoolean},
		},
	}
}

func TestStandardize(t *testing.T) {
	s := companySchema()

	record, err := Standardize(map[string]any{
		"name":      "Acme Corp",
		"employees": float64(250),
		"revenue":   "3.5M",
		"public":    "yes",
	}, s)
	require.NoError(t, err)

	assert.Equal(t, "company", record.SchemaTitle)
	assert.Equal(t, "Acme Corp", record.Data["name"])
	assert.Equal(t, int64(250), record.Data["employees"])
	assert.Equal(t, 3500000.0, record.Data["revenue"])
	assert.Equal(t, true, record.Data["public"])
	assert.False(t, record.CreatedAt.IsZero())
}

func TestStandardizeOptionalMissingBecomesNull(t *testing.T) {
	s := companySchema()

	record, err := Standardize(map[string]any{"name": "Acme"}, s)
	require.NoError(t, err)

	assert.Contains(t, record.Data, "employees")
	assert.Nil(t, record.Data["employees"])
	assert.Nil(t, record.Data["revenue"])
	assert.Nil(t, record.Data["public"])
}

func TestStandardizeRequiredMissingFails(t *testing.T) {
	s := companySchema()

	_, err := Standardize(map[string]any{"employees": float64(10)}, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name"`)

	_, err = Standardize(map[string]any{"name": nil}, s)
	require.Error(t, err)
}

func TestStandardizeDropsUnknownProperties(t *testing.T) {
	s := companySchema()

	record, err := Standardize(map[string]any{
		"name":    "Acme",
		"founded": float64(1999),
	}, s)
	require.NoError(t, err)
	assert.NotContains(t, record.Data, "founded")
}

func TestStandardizeCoercionFailures(t *testing.T) {
	s := companySchema()

	tests := []struct {
		value any
		name  string
		key   string
	}{
		{name: "fractional integer", key: "employees", value: 12.5},
		{name: "non-numeric integer string", key: "employees", value: "many"},
		{name: "ambiguous boolean", key: "public", value: "maybe"},
		{name: "boolean for number", key: "revenue", value: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Standardize(map[string]any{"name": "Acme", tt.key: tt.value}, s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestCoerceString(t *testing.T) {
	got, err := coerceString(float64(42))
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = coerceString(true)
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestCoerceBoolean(t *testing.T) {
	tests := []struct {
		value   any
		name    string
		want    bool
		wantErr bool
	}{
		{name: "bool passthrough", value: true, want: true},
		{name: "yes", value: "yes", want: true},
		{name: "Yes with space", value: " Yes ", want: true},
		{name: "y", value: "y", want: true},
		{name: "true string", value: "true", want: true},
		{name: "one", value: "1", want: true},
		{name: "no", value: "no", want: false},
		{name: "n", value: "n", want: false},
		{name: "false string", value: "false", want: false},
		{name: "zero", value: "0", want: false},
		{name: "garbage", value: "perhaps", wantErr: true},
		{name: "number", value: float64(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceBoolean(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "plain integer", input: "250", want: 250},
		{name: "decimal", input: "3.14", want: 3.14},
		{name: "thousands k", input: "2.5k", want: 2500},
		{name: "uppercase K", input: "2.5K", want: 2500},
		{name: "millions", input: "3.5M", want: 3500000},
		{name: "billions b", input: "1.2B", want: 1200000000},
		{name: "billions bn", input: "1.2bn", want: 1200000000},
		{name: "currency symbol", input: "$4.5m", want: 4500000},
		{name: "thousands separators", input: "1,234,567", want: 1234567},
		{name: "separators and suffix", input: "$1,2k", want: 12000},
		{name: "negative", input: "-42", want: -42},
		{name: "whitespace", input: "  100  ", want: 100},
		{name: "not a number", input: "lots", wantErr: true},
		{name: "suffix only", input: "k", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMagnitude(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}
