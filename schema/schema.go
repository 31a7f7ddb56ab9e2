// Package schema wraps JSON Schema fragments used as node input/output
// contracts, compiling and validating them with kaptinlin/jsonschema the
// way the teacher's engine/schema package does, and applying property
// defaults the way a node's FixedInput or Tool invocation needs to.
package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// Schema is a JSON Schema fragment expressed as a plain map, mirroring how
// node configs carry inputSchema/outputSchema in workflow YAML.
type Schema map[string]any

// ValidationResult reports the outcome of validating a value against a
// Schema.
type ValidationResult struct {
	Valid bool
}

// Compile parses the schema into a kaptinlin/jsonschema compiled form. A
// nil Schema compiles to (nil, nil) so optional node schemas are a no-op.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]any(*s))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// Validate compiles the schema and validates value against it. A nil
// Schema always passes with a nil result, matching the teacher's
// "no schema means no constraint" convention.
func (s *Schema) Validate(_ context.Context, value any) (*ValidationResult, error) {
	if s == nil {
		return nil, nil
	}
	compiled, err := s.Compile()
	if err != nil {
		return nil, err
	}
	result := compiled.Validate(value)
	if !result.IsValid() {
		return nil, fmt.Errorf("schema validation failed: %v", result.ToList())
	}
	return &ValidationResult{Valid: true}, nil
}

// ApplyDefaults returns a copy of input with any property carrying a
// schema-level "default" filled in where input omits it. A nil Schema (or
// a Schema with no object properties) returns input unchanged.
func (s *Schema) ApplyDefaults(input map[string]any) (map[string]any, error) {
	if s == nil {
		return input, nil
	}
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	props, ok := (*s)["properties"].(map[string]any)
	if !ok {
		return out, nil
	}
	for name, raw := range props {
		if _, exists := out[name]; exists {
			continue
		}
		propSchema, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if def, has := propSchema["default"]; has {
			out[name] = def
		}
	}
	return out, nil
}
