package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaError is one finding from the JSON-Schema cross-check of a
// sanitized plan.
type SchemaError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// CheckPlan validates a sanitized plan against the generated JSON Schema.
// This is a structural cross-check that the sanitizer produced a canonical
// document; domain rules live in pkg/validate.
func CheckPlan(p *Plan) []*SchemaError {
	data, err := json.Marshal(p)
	if err != nil {
		return []*SchemaError{{Message: fmt.Sprintf("marshal for schema validation: %v", err)}}
	}

	schemaJSON, err := GeneratePlanJSONSchema()
	if err != nil {
		return []*SchemaError{{Message: fmt.Sprintf("generate schema: %v", err)}}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*SchemaError{{Message: fmt.Sprintf("unmarshal schema: %v", err)}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("plan-v0.json", schemaDoc); err != nil {
		return []*SchemaError{{Message: fmt.Sprintf("add schema resource: %v", err)}}
	}
	sch, err := c.Compile("plan-v0.json")
	if err != nil {
		return []*SchemaError{{Message: fmt.Sprintf("compile schema: %v", err)}}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*SchemaError{{Message: fmt.Sprintf("unmarshal document: %v", err)}}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*SchemaError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &SchemaError{
					Path:    strings.Join(cause.InstanceLocation, "/"),
					Message: fmt.Sprintf("%v", cause.ErrorKind),
				})
			}
		} else {
			errs = append(errs, &SchemaError{Message: err.Error()})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
