package tplengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/engine/werrors"
)

func TestHasTemplate(t *testing.T) {
	t.Run("Should detect template markers", func(t *testing.T) {
		assert.False(t, HasTemplate(""))
		assert.False(t, HasTemplate("plain text"))
		assert.True(t, HasTemplate("Hello {{input.name}}"))
	})
}

func TestResolve(t *testing.T) {
	t.Run("Should expand fixed-input templates over input and context", func(t *testing.T) {
		binding := Binding{
			Input:   map[string]any{"firstName": "John"},
			Context: map[string]any{"lastName": "Doe"},
		}
		out, err := Resolve(map[string]any{
			"fullName": "{{input.firstName}} {{context.lastName}}",
		}, binding)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"fullName": "John Doe"}, out)
	})

	t.Run("Should raise a ReferenceError on a missing input path", func(t *testing.T) {
		binding := Binding{Input: map[string]any{"firstName": "John"}}
		_, err := Resolve("{{input.missing}}", binding)
		require.Error(t, err)
		var refErr *werrors.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, werrors.FieldInput, refErr.Field)
		assert.Equal(t, "missing", refErr.Reference)
	})

	t.Run("Should raise a ReferenceError when the namespace itself is absent", func(t *testing.T) {
		_, err := Resolve("{{state.cursor}}", Binding{})
		require.Error(t, err)
		var refErr *werrors.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, werrors.FieldState, refErr.Field)
	})

	t.Run("Should preserve the input's type for a whole-value reference", func(t *testing.T) {
		binding := Binding{Input: map[string]any{"x": 42}}
		out, err := Resolve(map[string]any{"v": "{{input.x}}"}, binding)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"v": 42}, out)
	})

	t.Run("Should preserve a non-string whole-namespace reference's type", func(t *testing.T) {
		binding := Binding{Input: []any{1, 2, 3}}
		out, err := Resolve("{{input}}", binding)
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2, 3}, out)
	})

	t.Run("Should pass through strings with no template markers", func(t *testing.T) {
		out, err := Resolve("plain", Binding{})
		require.NoError(t, err)
		assert.Equal(t, "plain", out)
	})

	t.Run("Should pass through non-string primitives unchanged", func(t *testing.T) {
		out, err := Resolve(7, Binding{})
		require.NoError(t, err)
		assert.Equal(t, 7, out)

		out, err = Resolve(nil, Binding{})
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("Should recursively resolve arrays", func(t *testing.T) {
		binding := Binding{Input: map[string]any{"y": "Y"}}
		out, err := Resolve([]any{"x {{input.y}}", 2}, binding)
		require.NoError(t, err)
		assert.Equal(t, []any{"x Y", 2}, out)
	})

	t.Run("Should apply a sprig function", func(t *testing.T) {
		out, err := Resolve(`{{ "hello" | upper }}`, Binding{})
		require.NoError(t, err)
		assert.Equal(t, "HELLO", out)
	})
}
