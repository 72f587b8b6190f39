// internal/explorer/guard/input.go
package guard

import (
	"strings"

	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/validation"
	"capability-explorer/internal/explorer/taxonomy"
	"capability-explorer/internal/models"
)

var inputSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"industry":  {Type: "string", Description: "industry id"},
		"role":      {Type: "string", Description: "role id"},
		"painPoint": {Type: "string", Description: "pain point id"},
	},
	Required:             []string{"industry", "role", "painPoint"},
	AdditionalProperties: true,
}

// InputGuard turns a decoded request body into an ExplorerInput that is known
// to reference taxonomy members.
type InputGuard struct {
	registry *taxonomy.Registry
}

func NewInputGuard(registry *taxonomy.Registry) *InputGuard {
	return &InputGuard{registry: registry}
}

// Validate reports missing fields first; only a complete body is checked
// against the taxonomy. A field of the wrong JSON type is invalid, not missing.
func (g *InputGuard) Validate(body map[string]interface{}) (models.ExplorerInput, error) {
	result := validation.ValidateInput(body, inputSchema)
	if missing := result.MissingFields(); len(missing) > 0 {
		return models.ExplorerInput{}, errors.NewMissingFieldsError(missing...)
	}
	if invalid := result.InvalidFields(); len(invalid) > 0 {
		stdErr := errors.NewInvalidInputError(invalid...)
		stdErr.Details = strings.Join(result.GetErrorMessages(), "; ")
		return models.ExplorerInput{}, stdErr
	}

	// ids are matched verbatim; " construction " is not a taxonomy member
	in := models.ExplorerInput{
		Industry:  body["industry"].(string),
		Role:      body["role"].(string),
		PainPoint: body["painPoint"].(string),
	}
	if invalid := g.registry.InvalidFields(in); len(invalid) > 0 {
		return models.ExplorerInput{}, errors.NewInvalidInputError(invalid...)
	}
	return in, nil
}
