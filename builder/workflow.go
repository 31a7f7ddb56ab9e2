// Package builder implements the mutating construction API over a
// workflow tree: addChild, addAfter, removeChild, modifyChild,
// modifyTrigger, swapNodes, find/findParent and renderTree. It follows the
// teacher's fluent, nil-safe sdk/workflow.Builder in spirit — deep-copying
// on every insertion so a caller's own reference to a node it passed in
// can never alias into the tree's internal state — but is reshaped around
// a tree of node.Node variants instead of a flat agent/task list.
package builder

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/node"
	"github.com/graphflow/engine/werrors"
)

// Workflow is a complete, constructed workflow tree.
type Workflow struct {
	Title   string     `json:"title" yaml:"title"`
	Trigger *node.Node `json:"trigger" yaml:"trigger"`
}

// Builder mutates a Workflow while preserving the structural invariants
// of §3: unique ids, a parentless trigger, and slot shapes matching each
// node kind.
type Builder struct {
	workflow *Workflow
}

// New constructs a Builder around a fresh workflow with the given title
// and trigger. The trigger subtree is deep-copied so later mutation of
// the caller's copy does not alias the builder's tree.
func New(title string, trigger *node.Node) (*Builder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &werrors.BadStructure{Detail: "workflow title cannot be empty"}
	}
	if trigger == nil || trigger.Kind != node.KindCronjobTrigger {
		return nil, &werrors.BadStructure{Detail: "workflow trigger must be a cronjob-trigger node"}
	}
	if _, duplicate := collectIDsWithDuplicateCheck(trigger); duplicate {
		return nil, &werrors.BadStructure{Detail: "trigger subtree contains duplicate node ids"}
	}
	return &Builder{workflow: &Workflow{Title: title, Trigger: trigger.Clone()}}, nil
}

// Workflow returns the builder's current tree. Callers must not mutate it
// directly; use the Builder's methods instead.
func (b *Builder) Workflow() *Workflow {
	return b.workflow
}

// Find performs a BFS lookup for id, returning nil if absent.
func (b *Builder) Find(id string) *node.Node {
	return findByID(b.workflow.Trigger, core.NodeID(id))
}

// FindParent performs a BFS lookup for the parent of id, returning nil if
// id is the trigger or is absent from the tree.
func (b *Builder) FindParent(id string) *node.Node {
	return findParentByID(b.workflow.Trigger, core.NodeID(id))
}

// AddChild attaches child under parentID's outgoing slot. An empty
// parentID targets the trigger's own child slot.
func (b *Builder) AddChild(parentID string, child *node.Node) error {
	if child == nil {
		return &werrors.BadStructure{Detail: "cannot add a nil child"}
	}
	if err := b.checkUnique(child, ""); err != nil {
		return err
	}
	clone := child.Clone()

	if parentID == "" {
		if b.workflow.Trigger.Child != nil {
			return &werrors.BadStructure{Detail: "trigger already has a child"}
		}
		b.workflow.Trigger.Child = clone
		return nil
	}

	parent := b.Find(parentID)
	if parent == nil {
		return &werrors.BadStructure{Detail: fmt.Sprintf("parent %q not found", parentID)}
	}
	switch node.ParentSlot(parent) {
	case node.SlotSingle:
		if parent.Child != nil {
			return &werrors.BadStructure{Detail: fmt.Sprintf("node %q already has a child", parentID)}
		}
		parent.Child = clone
	case node.SlotChildrenList:
		parent.Children = append(parent.Children, clone)
	case node.SlotBooleanPair:
		switch {
		case parent.TrueChild == nil:
			parent.TrueChild = clone
		case parent.FalseChild == nil:
			parent.FalseChild = clone
		default:
			return &werrors.BadStructure{Detail: fmt.Sprintf("boolean node %q already has both branches", parentID)}
		}
	default:
		return &werrors.BadStructure{Detail: fmt.Sprintf("node %q does not accept children", parentID)}
	}
	return nil
}

// AddAfter inserts child between parentID and its current single child;
// child's own child slot is set to the displaced node. Fails when
// parentID's slot is not single (i.e. Condition or Boolean).
func (b *Builder) AddAfter(parentID string, child *node.Node) error {
	if child == nil {
		return &werrors.BadStructure{Detail: "cannot add a nil child"}
	}
	if node.ParentSlot(child) != node.SlotSingle {
		return &werrors.BadStructure{Detail: "addAfter requires a single-child node to insert"}
	}
	if err := b.checkUnique(child, ""); err != nil {
		return err
	}

	var parent *node.Node
	if parentID == "" {
		parent = b.workflow.Trigger
	} else {
		parent = b.Find(parentID)
		if parent == nil {
			return &werrors.BadStructure{Detail: fmt.Sprintf("parent %q not found", parentID)}
		}
	}
	if node.ParentSlot(parent) != node.SlotSingle {
		return &werrors.BadStructure{Detail: fmt.Sprintf("addAfter does not support multi-child parent %q", parent.ID)}
	}

	clone := child.Clone()
	clone.Child = parent.Child
	parent.Child = clone
	return nil
}

// RemoveChild detaches id (and its entire subtree) from its parent. Fails
// if id is the trigger.
func (b *Builder) RemoveChild(id string) error {
	nodeID := core.NodeID(id)
	if nodeID == b.workflow.Trigger.ID {
		return &werrors.BadStructure{Detail: "cannot remove the trigger"}
	}
	parent := b.FindParent(id)
	if parent == nil {
		return &werrors.BadStructure{Detail: fmt.Sprintf("node %q not found", id)}
	}
	if !replaceChildRef(parent, nodeID, nil) {
		return &werrors.BadStructure{Detail: fmt.Sprintf("node %q not found under parent %q", id, parent.ID)}
	}
	return nil
}

// ModifyChild replaces id's node with replacement, preserving the parent
// link. Fails if id is the trigger; use ModifyTrigger for that.
func (b *Builder) ModifyChild(id string, replacement *node.Node) error {
	if replacement == nil {
		return &werrors.BadStructure{Detail: "replacement cannot be nil"}
	}
	nodeID := core.NodeID(id)
	if nodeID == b.workflow.Trigger.ID {
		return &werrors.BadStructure{Detail: "use modifyTrigger to replace the trigger"}
	}
	parent := b.FindParent(id)
	if parent == nil {
		return &werrors.BadStructure{Detail: fmt.Sprintf("node %q not found", id)}
	}
	if err := b.checkUnique(replacement, nodeID); err != nil {
		return err
	}
	clone := replacement.Clone()
	if !replaceChildRef(parent, nodeID, clone) {
		return &werrors.BadStructure{Detail: fmt.Sprintf("node %q not found under parent %q", id, parent.ID)}
	}
	return nil
}

// ModifyTrigger replaces the trigger's cron and id while preserving its
// existing child subtree.
func (b *Builder) ModifyTrigger(newTrigger *node.Node) error {
	if newTrigger == nil || newTrigger.Kind != node.KindCronjobTrigger {
		return &werrors.BadStructure{Detail: "modifyTrigger requires a cronjob-trigger node"}
	}
	if _, err := cron.ParseStandard(newTrigger.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", newTrigger.Cron, err)
	}
	b.workflow.Trigger = &node.Node{
		Kind:  node.KindCronjobTrigger,
		ID:    newTrigger.ID,
		Cron:  newTrigger.Cron,
		Child: b.workflow.Trigger.Child,
	}
	return nil
}

// checkUnique verifies that candidate's subtree introduces no id already
// present in the tree, other than excludeID (used by ModifyChild, whose
// replacement is allowed to reuse the id it is replacing).
func (b *Builder) checkUnique(candidate *node.Node, excludeID core.NodeID) error {
	candidateIDs, duplicate := collectIDsWithDuplicateCheck(candidate)
	if duplicate {
		return &werrors.BadStructure{Detail: "candidate subtree contains duplicate node ids"}
	}
	existing := collectIDs(b.workflow.Trigger)
	if excludeID != "" {
		delete(existing, excludeID)
	}
	for id := range candidateIDs {
		if existing[id] {
			return &werrors.BadStructure{Detail: fmt.Sprintf("node id %q already exists in the tree", id)}
		}
	}
	return nil
}
