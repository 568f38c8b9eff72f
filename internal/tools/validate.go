// In file: internal/tools/validate.go
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidateInput checks a tool-call argument payload against the tool's
// parameter schema.
func ValidateInput(tool Tool, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", tool.Function.Name, err)
	}
	resolved, err := tool.Function.Parameters.validator().Resolve(nil)
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", tool.Function.Name, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", tool.Function.Name, err)
	}
	return nil
}

// validator converts the schema into the jsonschema package's representation.
func (s JSONSchema) validator() *jsonschema.Schema {
	js := &jsonschema.Schema{
		Type:        s.Type,
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		js.Properties = make(map[string]*jsonschema.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			if prop != nil {
				js.Properties[name] = prop.validator()
			}
		}
	}
	return js
}
