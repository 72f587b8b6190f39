// internal/common/validation/validation_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tripleSchema = JSONSchema{
	Type: "object",
	Properties: map[string]Property{
		"industry":  {Type: "string"},
		"role":      {Type: "string"},
		"painPoint": {Type: "string"},
	},
	Required:             []string{"industry", "role", "painPoint"},
	AdditionalProperties: true,
}

// ==========================
// ValidateInput
// ==========================

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name        string
		input       map[string]interface{}
		wantValid   bool
		wantMissing []string
		wantInvalid []string
	}{
		{
			name:      "complete",
			input:     map[string]interface{}{"industry": "construction", "role": "owner", "painPoint": "money"},
			wantValid: true,
		},
		{
			name:        "absent field",
			input:       map[string]interface{}{"industry": "construction", "role": "owner"},
			wantMissing: []string{"painPoint"},
		},
		{
			name:        "blank and null count as missing",
			input:       map[string]interface{}{"industry": "  ", "role": nil, "painPoint": "money"},
			wantMissing: []string{"industry", "role"},
		},
		{
			name:        "wrong type is invalid, not missing",
			input:       map[string]interface{}{"industry": 42.0, "role": "owner", "painPoint": "money"},
			wantInvalid: []string{"industry"},
		},
		{
			name:        "extra fields allowed",
			input:       map[string]interface{}{"industry": "a", "role": "b", "painPoint": "c", "note": "x"},
			wantValid:   true,
			wantInvalid: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInput(tt.input, tripleSchema)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantMissing, res.MissingFields())
			assert.Equal(t, tt.wantInvalid, res.InvalidFields())
		})
	}
}

func TestValidateInput_ClosedSchemaRejectsExtraFields(t *testing.T) {
	schema := tripleSchema
	schema.AdditionalProperties = false

	res := ValidateInput(map[string]interface{}{"industry": "a", "role": "b", "painPoint": "c", "note": "x"}, schema)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"note"}, res.InvalidFields())
	assert.Equal(t, []string{"note: field not allowed in schema"}, res.GetErrorMessages())
}

func TestValidateInput_EnumAndLength(t *testing.T) {
	maxLen := 5
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"kind": {Type: "string", Enum: []string{"a", "b"}},
			"code": {Type: "string", MaxLength: &maxLen},
		},
		AdditionalProperties: true,
	}

	res := ValidateInput(map[string]interface{}{"kind": "c", "code": "toolong"}, schema)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"code", "kind"}, res.InvalidFields())
	assert.Len(t, res.GetErrorMessages(), 2)
}

// ==========================
// DocumentValidator
// ==========================

const sessionDocSchema = `{
  "type": "object",
  "required": ["session"],
  "properties": {
    "session": {
      "type": "object",
      "required": ["id", "input", "result"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "input": {"type": "object"},
        "result": {"type": "object"}
      }
    }
  }
}`

func TestDocumentValidator(t *testing.T) {
	v, err := NewDocumentValidator(sessionDocSchema)
	require.NoError(t, err)

	ok := map[string]interface{}{
		"session": map[string]interface{}{
			"id":     "s-1",
			"input":  map[string]interface{}{},
			"result": map[string]interface{}{},
		},
	}
	assert.NoError(t, v.Validate(ok))

	bad := map[string]interface{}{"session": map[string]interface{}{"id": ""}}
	err = v.Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document validation failed")
}

func TestNewDocumentValidator_BadSchema(t *testing.T) {
	_, err := NewDocumentValidator(`{"type": 7}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustDocumentValidator(`{"type": 7}`) })
}
