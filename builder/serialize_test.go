package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/engine/node"
)

func TestLoadAndDumpYAML(t *testing.T) {
	t.Run("Should round-trip a workflow through YAML", func(t *testing.T) {
		trig, err := node.NewCronjobTrigger("trig", "0 0 * * *")
		require.NoError(t, err)
		child, err := node.NewSkip("n1")
		require.NoError(t, err)
		trig.Child = child

		original := &Workflow{Title: "onboarding", Trigger: trig}
		data, err := DumpYAML(original)
		require.NoError(t, err)

		loaded, err := LoadYAML(data)
		require.NoError(t, err)
		assert.Equal(t, "onboarding", loaded.Title)
		assert.Equal(t, node.KindCronjobTrigger, loaded.Trigger.Kind)
		require.NotNil(t, loaded.Trigger.Child)
		assert.Equal(t, "n1", loaded.Trigger.Child.ID.String())
	})

	t.Run("Should reject a workflow yaml missing a trigger", func(t *testing.T) {
		_, err := LoadYAML([]byte("title: onboarding\n"))
		require.Error(t, err)
	})
}
