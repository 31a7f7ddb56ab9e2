package builder

import (
	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/node"
)

// findByID performs a BFS lookup for id starting at root.
func findByID(root *node.Node, id core.NodeID) *node.Node {
	if root == nil {
		return nil
	}
	queue := []*node.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.ID == id {
			return cur
		}
		queue = append(queue, node.OutgoingChildren(cur)...)
	}
	return nil
}

// findParentByID performs a BFS lookup for the direct parent of id.
func findParentByID(root *node.Node, id core.NodeID) *node.Node {
	if root == nil || root.ID == id {
		return nil
	}
	queue := []*node.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range node.OutgoingChildren(cur) {
			if child.ID == id {
				return cur
			}
		}
		queue = append(queue, node.OutgoingChildren(cur)...)
	}
	return nil
}

// collectIDs returns the set of every node id reachable from root.
func collectIDs(root *node.Node) map[core.NodeID]bool {
	ids, _ := collectIDsWithDuplicateCheck(root)
	return ids
}

// collectIDsWithDuplicateCheck walks the subtree rooted at root, reporting
// both the set of ids seen and whether any id was seen more than once
// (two distinct node objects sharing one id).
func collectIDsWithDuplicateCheck(root *node.Node) (map[core.NodeID]bool, bool) {
	ids := make(map[core.NodeID]bool)
	duplicate := false
	if root == nil {
		return ids, false
	}
	queue := []*node.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if ids[cur.ID] {
			duplicate = true
		}
		ids[cur.ID] = true
		queue = append(queue, node.OutgoingChildren(cur)...)
	}
	return ids, duplicate
}

// replaceChildRef finds where parent's outgoing slot holds oldID and
// replaces it with newChild (nil to detach). Reports whether oldID was
// found under parent.
func replaceChildRef(parent *node.Node, oldID core.NodeID, newChild *node.Node) bool {
	if parent == nil {
		return false
	}
	switch node.ParentSlot(parent) {
	case node.SlotSingle:
		if parent.Child != nil && parent.Child.ID == oldID {
			parent.Child = newChild
			return true
		}
	case node.SlotChildrenList:
		for i, c := range parent.Children {
			if c == nil || c.ID != oldID {
				continue
			}
			if newChild == nil {
				parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			} else {
				parent.Children[i] = newChild
			}
			return true
		}
	case node.SlotBooleanPair:
		if parent.TrueChild != nil && parent.TrueChild.ID == oldID {
			parent.TrueChild = newChild
			return true
		}
		if parent.FalseChild != nil && parent.FalseChild.ID == oldID {
			parent.FalseChild = newChild
			return true
		}
	}
	return false
}
