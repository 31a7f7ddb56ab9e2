package builder

import (
	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/node"
	"github.com/graphflow/engine/werrors"
)

// SwapNodes exchanges two non-trigger, non-identical nodes. Three cases
// are distinguished:
//
//  1. Both share a Condition parent: swap their positions in the
//     children list, each keeping its own subtree.
//  2. One is the other's direct single-child parent: swap their relative
//     order while preserving the deeper tail (the lower node's own child
//     becomes the new lower position's child).
//  3. Otherwise: exchange the two nodes' own content in place, leaving
//     each position's existing outgoing edges untouched.
func (b *Builder) SwapNodes(aID, bID string) error {
	if aID == bID {
		return &werrors.BadStructure{Detail: "cannot swap a node with itself"}
	}
	trigger := b.workflow.Trigger
	if core.NodeID(aID) == trigger.ID || core.NodeID(bID) == trigger.ID {
		return &werrors.BadStructure{Detail: "cannot swap the trigger"}
	}
	a := b.Find(aID)
	bNode := b.Find(bID)
	if a == nil || bNode == nil {
		return &werrors.BadStructure{Detail: "both nodes must exist to swap"}
	}

	parentA := b.FindParent(aID)
	parentB := b.FindParent(bID)

	if parentA != nil && parentB != nil && parentA.ID == parentB.ID && parentA.Kind == node.KindCondition {
		swapConditionChildren(parentA, core.NodeID(aID), core.NodeID(bID))
		return nil
	}

	if parentB != nil && parentB.ID == a.ID {
		return swapParentChild(parentA, a, bNode)
	}
	if parentA != nil && parentA.ID == bNode.ID {
		return swapParentChild(parentB, bNode, a)
	}

	return swapPayload(a, bNode)
}

func swapConditionChildren(parent *node.Node, aID, bID core.NodeID) {
	ai, bi := -1, -1
	for i, c := range parent.Children {
		if c == nil {
			continue
		}
		switch c.ID {
		case aID:
			ai = i
		case bID:
			bi = i
		}
	}
	if ai == -1 || bi == -1 {
		return
	}
	parent.Children[ai], parent.Children[bi] = parent.Children[bi], parent.Children[ai]
}

// swapParentChild handles case 2: upper is lower's direct single-child
// parent. grandparent is upper's own parent (always non-nil since upper
// is never the trigger here).
func swapParentChild(grandparent, upper, lower *node.Node) error {
	if node.ParentSlot(upper) != node.SlotSingle || node.ParentSlot(lower) != node.SlotSingle {
		return &werrors.BadStructure{Detail: "swap requires both nodes to have a single child slot"}
	}
	tail := lower.Child
	if !replaceChildRef(grandparent, upper.ID, lower) {
		return &werrors.BadStructure{Detail: "failed to relink nodes during swap"}
	}
	lower.Child = upper
	upper.Child = tail
	return nil
}

// swapPayload handles case 3: exchange the kind-specific content of a and
// bNode while leaving their existing structural out-edges (Child,
// Children, TrueChild, FalseChild) attached to the same tree positions
// they already occupied.
func swapPayload(a, bNode *node.Node) error {
	aChild, aChildren, aTrue, aFalse := a.Child, a.Children, a.TrueChild, a.FalseChild
	bChild, bChildren, bTrue, bFalse := bNode.Child, bNode.Children, bNode.TrueChild, bNode.FalseChild

	*a, *bNode = *bNode, *a

	a.Child, a.Children, a.TrueChild, a.FalseChild = aChild, aChildren, aTrue, aFalse
	bNode.Child, bNode.Children, bNode.TrueChild, bNode.FalseChild = bChild, bChildren, bTrue, bFalse
	return nil
}
