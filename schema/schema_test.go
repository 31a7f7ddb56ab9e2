package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	t.Run("Should validate a nested object against its schema", func(t *testing.T) {
		s := &Schema{
			"type": "object",
			"properties": map[string]any{
				"workflow": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
					"required": []string{"name"},
				},
			},
			"required": []string{"workflow"},
		}
		value := map[string]any{
			"workflow": map[string]any{"name": "onboarding"},
		}

		result, err := s.Validate(context.Background(), value)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("Should fail validation when a required field is missing", func(t *testing.T) {
		s := &Schema{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []string{"name"},
		}
		result, err := s.Validate(context.Background(), map[string]any{})
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorContains(t, err, "schema validation failed")
	})

	t.Run("Should allow validation to pass when the schema is nil", func(t *testing.T) {
		var s *Schema
		result, err := s.Validate(context.Background(), map[string]any{"any": "data"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestSchema_ApplyDefaults(t *testing.T) {
	t.Run("Should merge user input with schema defaults", func(t *testing.T) {
		s := &Schema{
			"type": "object",
			"properties": map[string]any{
				"timeout": map[string]any{"type": "number", "default": 30},
				"retries": map[string]any{"type": "integer", "default": 3},
			},
		}
		result, err := s.ApplyDefaults(map[string]any{"timeout": 60})
		require.NoError(t, err)
		assert.Equal(t, 60, result["timeout"])
		assert.Equal(t, 3, result["retries"])
	})

	t.Run("Should create a complete object from defaults when input is nil", func(t *testing.T) {
		s := &Schema{
			"type": "object",
			"properties": map[string]any{
				"queueName": map[string]any{"type": "string", "default": "default-queue"},
			},
		}
		result, err := s.ApplyDefaults(nil)
		require.NoError(t, err)
		assert.Equal(t, "default-queue", result["queueName"])
		assert.Len(t, result, 1)
	})

	t.Run("Should preserve input unchanged when the schema is nil", func(t *testing.T) {
		var s *Schema
		input := map[string]any{"customField": "value"}
		result, err := s.ApplyDefaults(input)
		require.NoError(t, err)
		assert.Equal(t, input, result)
	})
}

func TestSchema_Compile(t *testing.T) {
	t.Run("Should compile a schema with nested validation rules", func(t *testing.T) {
		s := &Schema{
			"type": "object",
			"properties": map[string]any{
				"version": map[string]any{"type": "string", "pattern": `^\d+\.\d+\.\d+$`},
			},
			"required": []string{"version"},
		}
		compiled, err := s.Compile()
		require.NoError(t, err)
		assert.NotNil(t, compiled)
	})

	t.Run("Should return an error for a schema that cannot be marshaled", func(t *testing.T) {
		s := &Schema{}
		(*s)["self"] = s
		compiled, err := s.Compile()
		require.Error(t, err)
		assert.Nil(t, compiled)
		assert.ErrorContains(t, err, "failed to compile schema")
	})

	t.Run("Should return nil for a nil schema without error", func(t *testing.T) {
		var s *Schema
		compiled, err := s.Compile()
		require.NoError(t, err)
		assert.Nil(t, compiled)
	})
}
