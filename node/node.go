// Package node defines the tagged node variants that make up a workflow
// tree, following the teacher's convention of a single config struct
// discriminated by a Kind string rather than a class hierarchy (see
// engine/task.Config's BaseConfig{ID, Type} pattern).
package node

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/schema"
	"github.com/graphflow/engine/werrors"
)

// Kind discriminates the node variant.
type Kind string

const (
	KindCronjobTrigger Kind = "cronjob-trigger"
	KindTool           Kind = "tool"
	KindConverter      Kind = "converter"
	KindCondition      Kind = "condition"
	KindBoolean        Kind = "boolean"
	KindFixedInput     Kind = "fixed-input"
	KindUpsertState    Kind = "upsert-state"
	KindSkip           Kind = "skip"
)

// RuntimeJS is the only sandboxed code runtime the model currently names.
const RuntimeJS = "js"

// Node is the tagged union of every workflow node kind. Only the fields
// relevant to Kind are populated; the rest stay zero. This mirrors the
// teacher's single wide Config struct rather than a Go sum-type emulation,
// since connectivity is validated by the builder, not the type system.
type Node struct {
	Kind Kind       `json:"kind" yaml:"kind"`
	ID   core.NodeID `json:"id" yaml:"id"`

	// CronjobTrigger
	Cron string `json:"cron,omitempty" yaml:"cron,omitempty"`

	// Tool
	ToolIdentifier string        `json:"toolIdentifier,omitempty" yaml:"toolIdentifier,omitempty"`
	Description    *string       `json:"description,omitempty" yaml:"description,omitempty"`
	InputSchema    schema.Schema `json:"inputSchema,omitempty" yaml:"inputSchema,omitempty"`
	OutputSchema   schema.Schema `json:"outputSchema,omitempty" yaml:"outputSchema,omitempty"`

	// Converter, Condition, Boolean
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`

	// FixedInput
	Output any `json:"output,omitempty" yaml:"output,omitempty"`

	// UpsertState
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`

	// Single-child kinds: CronjobTrigger, Tool, Converter, FixedInput,
	// UpsertState, Skip.
	Child *Node `json:"child,omitempty" yaml:"child,omitempty"`

	// Condition
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`

	// Boolean
	TrueChild  *Node `json:"trueChild,omitempty" yaml:"trueChild,omitempty"`
	FalseChild *Node `json:"falseChild,omitempty" yaml:"falseChild,omitempty"`
}

func resolveID(id string) (core.NodeID, error) {
	if id == "" {
		return core.NewNodeID()
	}
	return core.NodeID(id), nil
}

// NewCronjobTrigger validates cron against the standard 5-field grammar
// before construction; an invalid expression is rejected immediately.
func NewCronjobTrigger(id, cronExpr string) (*Node, error) {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindCronjobTrigger, ID: nodeID, Cron: cronExpr}, nil
}

// NewTool constructs a Tool node invoking toolIdentifier via the external
// Tool Registry at compile time and the ToolExecutor at run time.
func NewTool(id, toolIdentifier string, description *string, inputSchema, outputSchema schema.Schema) (*Node, error) {
	if toolIdentifier == "" {
		return nil, &werrors.BadStructure{Detail: "tool node requires a toolIdentifier"}
	}
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{
		Kind:           KindTool,
		ID:             nodeID,
		ToolIdentifier: toolIdentifier,
		Description:    description,
		InputSchema:    inputSchema,
		OutputSchema:   outputSchema,
	}, nil
}

// NewConverter constructs a Converter node running sandboxed code of the
// form `handle({input,context,state}) → value`.
func NewConverter(id, code string) (*Node, error) {
	if code == "" {
		return nil, &werrors.BadStructure{Detail: "converter node requires code"}
	}
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindConverter, ID: nodeID, Runtime: RuntimeJS, Code: code}, nil
}

// NewCondition constructs a Condition node. children may be empty. At run
// time the identifier the code returns is looked up in the whole tree, not
// only among children; a null return terminates the path.
func NewCondition(id, code string, children ...*Node) (*Node, error) {
	if code == "" {
		return nil, &werrors.BadStructure{Detail: "condition node requires code"}
	}
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindCondition, ID: nodeID, Runtime: RuntimeJS, Code: code, Children: children}, nil
}

// NewBoolean constructs a Boolean node. trueChild/falseChild may each be
// nil; a nil chosen branch terminates the path silently at run time.
func NewBoolean(id, code string, trueChild, falseChild *Node) (*Node, error) {
	if code == "" {
		return nil, &werrors.BadStructure{Detail: "boolean node requires code"}
	}
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{
		Kind:       KindBoolean,
		ID:         nodeID,
		Runtime:    RuntimeJS,
		Code:       code,
		TrueChild:  trueChild,
		FalseChild: falseChild,
	}, nil
}

// NewFixedInput constructs a FixedInput node whose output is rendered
// through the template resolver at run time.
func NewFixedInput(id string, output any) (*Node, error) {
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindFixedInput, ID: nodeID, Output: output}, nil
}

// NewUpsertState constructs an UpsertState node.
func NewUpsertState(id, key string, value any) (*Node, error) {
	if key == "" {
		return nil, &werrors.BadStructure{Detail: "upsert-state node requires a key"}
	}
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindUpsertState, ID: nodeID, Key: key, Value: value}, nil
}

// NewSkip constructs a Skip node.
func NewSkip(id string) (*Node, error) {
	nodeID, err := resolveID(id)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindSkip, ID: nodeID}, nil
}
