// Package compiler runs the workflow validation pipeline: structural
// invariants, tool-existence lookup against an external Tool Registry,
// and schema-compatibility checks between adjacent Tool nodes. Mirrors
// the teacher's uc (use case) pipelines in spirit — a short-circuiting
// sequence of stages. The raw-shape and schema-compatibility stages collect
// every issue within their class before failing; the tree-structure stage
// (validateStructure) stops at the first violation it finds.
package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphflow/engine/builder"
	"github.com/graphflow/engine/node"
	"github.com/graphflow/engine/schemacheck"
	"github.com/graphflow/engine/werrors"
)

// ToolRegistry resolves whether a set of tool identifiers are registered.
type ToolRegistry interface {
	CheckExistence(ctx context.Context, toolIdentifiers []string) (missingTools []string, err error)
}

// Compile runs the full validation pipeline over wf and returns it
// unchanged on success. registry may be nil when no Tool nodes are
// present; a workflow containing Tool nodes with a nil registry skips the
// existence check (the caller has chosen not to enforce it).
func Compile(ctx context.Context, wf *builder.Workflow, registry ToolRegistry) (*builder.Workflow, error) {
	if wf != nil && wf.Trigger != nil {
		if err := validateRawShape(wf.Trigger); err != nil {
			return nil, err
		}
	}
	if err := validateStructure(wf); err != nil {
		return nil, err
	}

	toolIDs, edges := collectToolsAndEdges(wf.Trigger)

	if registry != nil && len(toolIDs) > 0 {
		missing, err := registry.CheckExistence(ctx, toolIDs)
		if err != nil {
			return nil, fmt.Errorf("tool registry check failed: %w", err)
		}
		if len(missing) > 0 {
			return nil, &werrors.ToolsMissing{MissingTools: missing}
		}
	}

	var errs, suggestions []string
	for _, edge := range edges {
		result := schemacheck.Check(edge.producer.OutputSchema, edge.consumer.InputSchema)
		if !result.Compatible {
			errs = append(errs, result.Errors...)
			suggestions = append(suggestions, result.Suggestions...)
		}
	}
	if len(errs) > 0 {
		return nil, &werrors.SchemaMismatch{Errors: errs, Suggestions: suggestions}
	}

	return wf, nil
}

type toolEdge struct {
	producer *node.Node
	consumer *node.Node
}

// collectToolsAndEdges walks the tree once, gathering every distinct Tool
// identifier and every direct Tool→Tool parent-child edge.
func collectToolsAndEdges(root *node.Node) ([]string, []toolEdge) {
	seen := map[string]bool{}
	var toolIDs []string
	var edges []toolEdge

	var walk func(n *node.Node)
	walk = func(n *node.Node) {
		if n == nil {
			return
		}
		if n.Kind == node.KindTool {
			if !seen[n.ToolIdentifier] {
				seen[n.ToolIdentifier] = true
				toolIDs = append(toolIDs, n.ToolIdentifier)
			}
			if n.Child != nil && n.Child.Kind == node.KindTool {
				edges = append(edges, toolEdge{producer: n, consumer: n.Child})
			}
		}
		for _, c := range node.OutgoingChildren(n) {
			walk(c)
		}
	}
	walk(root)
	return toolIDs, edges
}

// validateStructure re-derives the §3 invariants independently of the
// builder, since a workflow may have been loaded from YAML rather than
// constructed through it.
func validateStructure(wf *builder.Workflow) error {
	if wf == nil || wf.Trigger == nil {
		return &werrors.BadStructure{Detail: "workflow has no trigger"}
	}
	if wf.Trigger.Kind != node.KindCronjobTrigger {
		return &werrors.BadStructure{Detail: "workflow root must be a cronjob-trigger"}
	}
	if strings.TrimSpace(wf.Title) == "" {
		return &werrors.BadStructure{Detail: "workflow title cannot be empty"}
	}

	visited := map[*node.Node]bool{}
	ids := map[string]bool{}

	var walk func(n *node.Node) error
	walk = func(n *node.Node) error {
		if n == nil {
			return nil
		}
		if visited[n] {
			return &werrors.BadStructure{Detail: "workflow graph contains a cycle"}
		}
		visited[n] = true
		if ids[n.ID.String()] {
			return &werrors.BadStructure{Detail: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		ids[n.ID.String()] = true
		if err := validateShape(n); err != nil {
			return err
		}
		for _, c := range node.OutgoingChildren(n) {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(wf.Trigger)
}

func validateShape(n *node.Node) error {
	switch n.Kind {
	case node.KindCondition:
		if n.Child != nil || n.TrueChild != nil || n.FalseChild != nil {
			return &werrors.BadStructure{Detail: fmt.Sprintf("condition node %q must use children, not child/trueChild/falseChild", n.ID)}
		}
	case node.KindBoolean:
		if n.Child != nil || len(n.Children) > 0 {
			return &werrors.BadStructure{Detail: fmt.Sprintf("boolean node %q must use trueChild/falseChild, not child/children", n.ID)}
		}
	default:
		if len(n.Children) > 0 || n.TrueChild != nil || n.FalseChild != nil {
			return &werrors.BadStructure{Detail: fmt.Sprintf("node %q must use a single child slot", n.ID)}
		}
	}
	return nil
}
