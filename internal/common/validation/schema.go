// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// JSONSchema is the flat object schema used for request bodies.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
}

// Error codes carried in ValidationError.Code.
const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeExtraField           = "EXTRA_FIELD"
	CodeInvalidType          = "INVALID_TYPE"
	CodeMinLength            = "MIN_LENGTH_VIOLATION"
	CodeMaxLength            = "MAX_LENGTH_VIOLATION"
	CodeInvalidEnum          = "INVALID_ENUM_VALUE"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks input against schema. Required fields are reported
// first in schema order, then per-field violations sorted by field name.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	required := make(map[string]bool, len(schema.Required))
	for _, field := range schema.Required {
		required[field] = true
		if isMissing(input, field) {
			errs = append(errs, ValidationError{Field: field, Message: "required field missing", Code: CodeRequiredFieldMissing})
		}
	}

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if required[name] && isMissing(input, name) {
			continue
		}
		prop, ok := schema.Properties[name]
		if !ok {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{Field: name, Message: "field not allowed in schema", Code: CodeExtraField})
			}
			continue
		}
		errs = append(errs, validateField(name, input[name], prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateField(name string, value interface{}, prop Property) []ValidationError {
	if err := validateType(value, prop.Type); err != nil {
		return []ValidationError{{Field: name, Message: err.Error(), Code: CodeInvalidType}}
	}

	s, ok := value.(string)
	if !ok {
		return nil
	}

	var errs []ValidationError
	n := utf8.RuneCountInString(s)
	if prop.MinLength != nil && n < *prop.MinLength {
		errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf("value must be at least %d characters", *prop.MinLength), Code: CodeMinLength})
	}
	if prop.MaxLength != nil && n > *prop.MaxLength {
		errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength), Code: CodeMaxLength})
	}
	if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
		errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf("value must be one of %v", prop.Enum), Code: CodeInvalidEnum})
	}
	return errs
}

// validateType understands the shapes encoding/json produces.
func validateType(value interface{}, expected string) error {
	var ok bool
	switch expected {
	case "", "any":
		return nil
	case "string":
		_, ok = value.(string)
	case "number":
		_, ok = value.(float64)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]interface{})
	case "array":
		_, ok = value.([]interface{})
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	if !ok {
		return fmt.Errorf("expected %s, got %T", expected, value)
	}
	return nil
}

// GetErrorMessages renders every violation as "field: message".
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// MissingFields returns the fields reported as absent, in schema order.
func (vr *ValidationResult) MissingFields() []string {
	var fields []string
	for _, err := range vr.Errors {
		if err.Code == CodeRequiredFieldMissing {
			fields = append(fields, err.Field)
		}
	}
	return fields
}

// InvalidFields returns the fields that were present but failed a constraint.
func (vr *ValidationResult) InvalidFields() []string {
	var fields []string
	seen := map[string]bool{}
	for _, err := range vr.Errors {
		if err.Code == CodeRequiredFieldMissing || seen[err.Field] {
			continue
		}
		seen[err.Field] = true
		fields = append(fields, err.Field)
	}
	return fields
}

// isMissing treats absent keys, JSON null and blank strings alike.
func isMissing(input map[string]interface{}, field string) bool {
	value, exists := input[field]
	if !exists || value == nil {
		return true
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
