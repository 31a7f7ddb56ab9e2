package engine

import (
	"context"
	"time"

	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/node"
	"github.com/graphflow/engine/tplengine"
	"github.com/graphflow/engine/werrors"
)

// evaluate dispatches n by kind, returning its produced output and the
// queueItems to enqueue for its successors. It never mutates r.executed/
// r.outputs itself; the caller commits those after a successful
// evaluation so a failed node never appears half-applied.
func (r *run) evaluate(ctx context.Context, n *node.Node, incoming any) (any, []queueItem, error) {
	switch n.Kind {
	case node.KindCronjobTrigger:
		return r.evalTrigger(incoming)
	case node.KindTool:
		return r.evalTool(ctx, n, incoming)
	case node.KindConverter:
		return r.evalConverter(ctx, n, incoming)
	case node.KindCondition:
		return r.evalCondition(ctx, n)
	case node.KindBoolean:
		return r.evalBoolean(ctx, n)
	case node.KindFixedInput:
		return r.evalFixedInput(ctx, n, incoming)
	case node.KindUpsertState:
		return r.evalUpsertState(ctx, n)
	case node.KindSkip:
		return incoming, nil, nil
	default:
		return nil, nil, &werrors.BadStructure{Detail: "unknown node kind: " + string(n.Kind)}
	}
}

// triggerTimestampLayout matches the teacher's RFC3339 timestamps for
// synthetic trigger payloads.
const triggerTimestampLayout = time.RFC3339

func (r *run) evalTrigger(incoming any) (any, []queueItem, error) {
	if incoming != nil {
		return incoming, nil, nil
	}
	return map[string]any{
		"trigger":   "executed",
		"timestamp": time.Now().UTC().Format(triggerTimestampLayout),
	}, nil, nil
}

func (r *run) evalTool(ctx context.Context, n *node.Node, incoming any) (any, []queueItem, error) {
	output, err := r.eng.tools.Invoke(ctx, n.ToolIdentifier, incoming)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &werrors.Cancelled{Cause: ctxErr}
		}
		return nil, nil, &werrors.ToolFailure{NodeID: n.ID.String(), Cause: err}
	}
	return output, singleSuccessor(n.Child, output), nil
}

func (r *run) evalConverter(ctx context.Context, n *node.Node, incoming any) (any, []queueItem, error) {
	runContext := map[string]any{
		"input":  incoming,
		"code":   n.Code,
		"nodeId": n.ID.String(),
	}
	raw, err := r.eng.code.Run(ctx, incoming, n.Code, runContext)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &werrors.Cancelled{Cause: ctxErr}
		}
		return nil, nil, &werrors.ConverterFailure{NodeID: n.ID.String(), Cause: err}
	}
	// Converter output must be JSON-round-trippable and isolated from the
	// sandbox's own memory; a deep clone via JSON serves both purposes
	// (spec.md §9's note on the source's commented-out deep clone).
	output, err := core.JSONClone(raw)
	if err != nil {
		return nil, nil, &werrors.ConverterFailure{NodeID: n.ID.String(), Cause: err}
	}
	return output, singleSuccessor(n.Child, output), nil
}

func (r *run) evalCondition(ctx context.Context, n *node.Node) (any, []queueItem, error) {
	parentID, parentOutput := r.nonTriggerParentOutput(n)
	input := map[string]any{"input": parentOutput, "nodeId": parentID.String()}
	runContext := map[string]any{"nodeId": n.ID.String()}

	result, err := r.eng.code.Run(ctx, input, n.Code, runContext)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &werrors.Cancelled{Cause: ctxErr}
		}
		return nil, nil, &werrors.ConditionFailure{NodeID: n.ID.String(), Cause: err}
	}
	if result == nil {
		// The condition chose to terminate this path; its output is the
		// null it returned (spec.md S5).
		return nil, nil, nil
	}
	childID, ok := result.(string)
	if !ok {
		return nil, nil, &werrors.ConditionFailure{NodeID: n.ID.String(), Cause: errNotAStringOrNull("condition")}
	}
	return result, []queueItem{{nodeID: core.NodeID(childID), incoming: nil}}, nil
}

func (r *run) evalBoolean(ctx context.Context, n *node.Node) (any, []queueItem, error) {
	parentID, parentOutput := r.nonTriggerParentOutput(n)
	input := map[string]any{"input": parentOutput, "nodeId": parentID.String()}
	runContext := map[string]any{"nodeId": n.ID.String()}

	result, err := r.eng.code.Run(ctx, input, n.Code, runContext)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &werrors.Cancelled{Cause: ctxErr}
		}
		return nil, nil, &werrors.ConditionFailure{NodeID: n.ID.String(), Cause: err}
	}
	decision, ok := result.(bool)
	if !ok {
		return nil, nil, &werrors.ConditionFailure{NodeID: n.ID.String(), Cause: errNotAStringOrNull("boolean")}
	}

	chosen := n.FalseChild
	if decision {
		chosen = n.TrueChild
	}
	if chosen == nil {
		// A missing chosen branch terminates the path silently; this is
		// load-bearing for "act only once" idioms paired with UpsertState
		// (spec.md §9).
		return decision, nil, nil
	}
	return decision, []queueItem{{nodeID: chosen.ID, incoming: decision}}, nil
}

func (r *run) evalFixedInput(ctx context.Context, n *node.Node, incoming any) (any, []queueItem, error) {
	stateSnapshot, err := r.snapshotState(ctx)
	if err != nil {
		return nil, nil, err
	}
	rendered, err := tplengine.Resolve(n.Output, tplengine.Binding{
		Input:   incoming,
		Context: r.userContext,
		State:   stateSnapshot,
	})
	if err != nil {
		// Reference errors propagate as-is, unwrapped, per spec.md §7.
		return nil, nil, err
	}
	return rendered, singleSuccessor(n.Child, rendered), nil
}

func (r *run) evalUpsertState(ctx context.Context, n *node.Node) (any, []queueItem, error) {
	if err := r.eng.stateClient.Set(ctx, n.Key, n.Value); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &werrors.Cancelled{Cause: ctxErr}
		}
		return nil, nil, err
	}
	return n.Value, singleSuccessor(n.Child, n.Value), nil
}

// snapshotState fetches the full state namespace once per FixedInput
// evaluation so `{{state.*}}` templates see a consistent view for that
// node; it is not cached across nodes since UpsertState writes earlier in
// the same run must be visible to later FixedInput reads.
func (r *run) snapshotState(ctx context.Context) (map[string]any, error) {
	snapshot, err := r.eng.stateClient.GetAll(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &werrors.Cancelled{Cause: ctxErr}
		}
		return nil, err
	}
	return snapshot, nil
}

func singleSuccessor(child *node.Node, output any) []queueItem {
	if child == nil {
		return nil
	}
	return []queueItem{{nodeID: child.ID, incoming: output}}
}

type evalTypeError string

func (e evalTypeError) Error() string { return string(e) }

func errNotAStringOrNull(kind string) error {
	if kind == "boolean" {
		return evalTypeError("boolean node code did not return a bool")
	}
	return evalTypeError("condition node code did not return a string child id or null")
}
