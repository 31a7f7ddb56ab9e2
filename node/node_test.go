package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/schema"
)

func TestNewCronjobTrigger(t *testing.T) {
	t.Run("Should accept a valid standard cron expression", func(t *testing.T) {
		n, err := NewCronjobTrigger("", "*/5 * * * *")
		require.NoError(t, err)
		assert.Equal(t, KindCronjobTrigger, n.Kind)
		assert.NotEmpty(t, n.ID)
	})

	t.Run("Should reject an invalid cron expression at construction time", func(t *testing.T) {
		_, err := NewCronjobTrigger("", "not a cron")
		require.Error(t, err)
	})

	t.Run("Should preserve a caller-supplied id", func(t *testing.T) {
		n, err := NewCronjobTrigger("trig-1", "0 0 * * *")
		require.NoError(t, err)
		assert.Equal(t, "trig-1", n.ID.String())
	})
}

func TestNewTool(t *testing.T) {
	t.Run("Should require a tool identifier", func(t *testing.T) {
		_, err := NewTool("", "", nil, nil, nil)
		require.Error(t, err)
	})

	t.Run("Should construct a Tool node with schemas", func(t *testing.T) {
		n, err := NewTool("", "binance", nil, schema.Schema{"type": "object"}, schema.Schema{"type": "object"})
		require.NoError(t, err)
		assert.Equal(t, KindTool, n.Kind)
		assert.Equal(t, "binance", n.ToolIdentifier)
	})
}

func TestParentSlotAndOutgoingChildren(t *testing.T) {
	t.Run("Should report children-list slot and order for Condition", func(t *testing.T) {
		c1, _ := NewSkip("c1")
		c2, _ := NewSkip("c2")
		cond, err := NewCondition("cond", "return null", c1, c2)
		require.NoError(t, err)
		assert.Equal(t, SlotChildrenList, ParentSlot(cond))
		assert.Equal(t, []*Node{c1, c2}, OutgoingChildren(cond))
	})

	t.Run("Should report boolean-pair slot and skip nil branches for Boolean", func(t *testing.T) {
		trueChild, _ := NewSkip("t")
		boolNode, err := NewBoolean("b", "return true", trueChild, nil)
		require.NoError(t, err)
		assert.Equal(t, SlotBooleanPair, ParentSlot(boolNode))
		assert.Equal(t, []*Node{trueChild}, OutgoingChildren(boolNode))
	})

	t.Run("Should report single slot for Tool/Converter/FixedInput/UpsertState/Skip", func(t *testing.T) {
		tool, _ := NewTool("", "x", nil, nil, nil)
		assert.Equal(t, SlotSingle, ParentSlot(tool))

		converter, _ := NewConverter("", "return input")
		assert.Equal(t, SlotSingle, ParentSlot(converter))

		fixed, _ := NewFixedInput("", map[string]any{"a": 1})
		assert.Equal(t, SlotSingle, ParentSlot(fixed))

		upsert, _ := NewUpsertState("", "k", "v")
		assert.Equal(t, SlotSingle, ParentSlot(upsert))

		skip, _ := NewSkip("")
		assert.Equal(t, SlotSingle, ParentSlot(skip))
	})
}

func TestNodeClone(t *testing.T) {
	t.Run("Should produce an alias-free deep copy of the subtree", func(t *testing.T) {
		child, _ := NewSkip("child")
		desc := "desc"
		tool, err := NewTool("tool", "x", &desc, schema.Schema{"type": "object"}, nil)
		require.NoError(t, err)
		tool.Child = child

		clone := tool.Clone()
		assert.Equal(t, tool, clone)
		assert.NotSame(t, tool, clone)
		assert.NotSame(t, tool.Child, clone.Child)
		assert.NotSame(t, tool.Description, clone.Description)

		clone.Child.ID = "mutated"
		assert.Equal(t, core.NodeID("child"), tool.Child.ID)
	})
}
