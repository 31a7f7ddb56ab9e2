package builder

import (
	"fmt"
	"strings"

	"github.com/graphflow/engine/node"
)

// RenderTree returns a human-readable, indented diagnostic view of the
// workflow, one line per node.
func (b *Builder) RenderTree() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", b.workflow.Title)
	renderNode(&sb, b.workflow.Trigger, 0)
	return sb.String()
}

func renderNode(sb *strings.Builder, n *node.Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s- [%s] %s\n", indent, n.Kind, n.ID)
	for _, child := range node.OutgoingChildren(n) {
		renderNode(sb, child, depth+1)
	}
}
