package node

import (
	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/schema"
)

// Clone returns a deep, alias-free copy of n and its entire subtree. The
// builder clones on every mutating call so a caller holding a reference to
// a node it passed in cannot observe or cause aliasing with the tree's
// internal state.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Child = n.Child.Clone()
	clone.TrueChild = n.TrueChild.Clone()
	clone.FalseChild = n.FalseChild.Clone()
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = c.Clone()
		}
	}
	if n.InputSchema != nil {
		clone.InputSchema = cloneSchema(n.InputSchema)
	}
	if n.OutputSchema != nil {
		clone.OutputSchema = cloneSchema(n.OutputSchema)
	}
	if n.Description != nil {
		d := *n.Description
		clone.Description = &d
	}
	return &clone
}

// cloneSchema returns a deep copy of a JSON-Schema fragment via a JSON
// round-trip; schema fragments are plain JSON values so this is always
// lossless.
func cloneSchema(s schema.Schema) schema.Schema {
	cloned, err := core.JSONClone(map[string]any(s))
	if err != nil {
		// Schema fragments are always JSON-plain; a failure here means a
		// caller smuggled a non-JSON value into the schema, which the
		// node constructors never do. Fall back to the original rather
		// than silently losing data.
		return s
	}
	m, ok := cloned.(map[string]any)
	if !ok {
		return s
	}
	return schema.Schema(m)
}
