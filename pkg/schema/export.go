package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GeneratePlanJSONSchema produces a JSON Schema Draft 2020-12 document from
// the sanitized Plan struct using invopop/jsonschema.
func GeneratePlanJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Plan{})
	s.ID = "https://github.com/robotwin-lab/plancheck/schemas/plan-v0.json"
	s.Title = "Sanitized Manipulation Task Plan v0"
	s.Description = "Schema for validated plancheck task plan documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
