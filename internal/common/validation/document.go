// internal/common/validation/document.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentValidator checks decoded JSON documents against a compiled JSON Schema.
type DocumentValidator struct {
	schema *gojsonschema.Schema
}

func NewDocumentValidator(schemaJSON string) (*DocumentValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &DocumentValidator{schema: schema}, nil
}

// MustDocumentValidator panics if schemaJSON does not compile.
func MustDocumentValidator(schemaJSON string) *DocumentValidator {
	v, err := NewDocumentValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns nil when doc conforms, otherwise an error listing every violation.
func (v *DocumentValidator) Validate(doc interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %v", errs)
	}

	return nil
}
