// Package engine implements the BFS execution interpreter described in
// spec.md §4.F: it threads data between nodes, coordinates conditional
// fan-in, invokes the Tool and Code executors, and reads/writes the State
// Store. Mirrors the teacher's engine/task worker loop in spirit — a
// queue-driven dispatcher with one evaluator per node kind — reshaped
// around a single-threaded cooperative run over a node.Node tree instead
// of Temporal activities.
package engine

import (
	"context"

	"github.com/graphflow/engine/builder"
	"github.com/graphflow/engine/core"
	"github.com/graphflow/engine/executor"
	"github.com/graphflow/engine/logger"
	"github.com/graphflow/engine/node"
	"github.com/graphflow/engine/state"
	"github.com/graphflow/engine/werrors"
)

// defaultMaxQueueSize sets the dequeue-iteration cap of a run: a single run
// may perform at most twice this many dequeue iterations, guarding against
// a malformed workflow (e.g. a Condition that never becomes ready) spinning
// forever. Matches config.Config's MaxQueueSize default; callers override
// it via WithMaxQueueSize.
const defaultMaxQueueSize = 10_000

// Engine runs a single, already-compiled workflow tree against the
// abstract Tool/Code executors and State Store. An Engine instance is
// reusable across Run calls; each Run owns its own scratch state (queue,
// executed set, output cache, parent tracker, last-output accumulator)
// per spec.md §3's ownership model, so concurrent runs never share state.
type Engine struct {
	workflow     *builder.Workflow
	tools        executor.ToolExecutor
	code         executor.CodeExecutor
	stateClient  state.StateClient
	maxQueueSize int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithMaxQueueSize overrides the queue size for runs produced by this
// Engine; each run's dequeue-iteration cap is twice n.
func WithMaxQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxQueueSize = n
		}
	}
}

// New constructs an Engine bound to wf and the given collaborators. wf is
// expected to have already passed compiler.Compile, though Run does not
// require that — an uncompiled workflow simply risks hitting errors the
// compiler would otherwise have caught up front (missing tools, schema
// mismatches) as the corresponding runtime failures instead.
func New(wf *builder.Workflow, tools executor.ToolExecutor, code executor.CodeExecutor, stateClient state.StateClient, opts ...Option) *Engine {
	e := &Engine{
		workflow:     wf,
		tools:        tools,
		code:         code,
		stateClient:  stateClient,
		maxQueueSize: defaultMaxQueueSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// queueItem is one pending (node, incoming value) pair waiting to be
// evaluated.
type queueItem struct {
	nodeID   core.NodeID
	incoming any
}

// run holds the mutable scratch state owned exclusively by one Run call.
type run struct {
	eng         *Engine
	userContext any
	nodesByID   map[core.NodeID]*node.Node
	parentsOf   map[core.NodeID][]core.NodeID
	queue       []queueItem
	executed    map[core.NodeID]bool
	outputs     map[core.NodeID]any
	lastOutput  any
}

// Run executes the workflow starting at the trigger's direct child, using
// userContext as the initial incoming value and as the `context` namespace
// for every Template Resolver invocation along the way. It returns the
// last successfully produced output, per spec.md §4.F's lastOutput
// contract, or the error that aborted the run.
//
// Run honors ctx cancellation at every suspension point (Tool calls, Code
// calls, State Store operations): a canceled context surfaces as
// werrors.Cancelled rather than whatever error the suspended collaborator
// itself returned.
func (e *Engine) Run(ctx context.Context, userContext any) (any, error) {
	log := logger.FromContext(ctx).With("workflow", e.workflow.Title)

	trigger := e.workflow.Trigger
	if trigger.Child == nil {
		return nil, &werrors.EmptyWorkflow{}
	}

	r := &run{
		eng:         e,
		userContext: userContext,
		nodesByID:   indexNodes(trigger),
		parentsOf:   indexParents(trigger),
		executed:    map[core.NodeID]bool{trigger.ID: true},
		outputs:     map[core.NodeID]any{trigger.ID: userContext},
		lastOutput:  userContext,
	}
	r.queue = append(r.queue, queueItem{nodeID: trigger.Child.ID, incoming: userContext})

	iterations := 0
	maxIterations := e.maxQueueSize * 2
	for len(r.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &werrors.Cancelled{Cause: err}
		}
		iterations++
		if iterations > maxIterations {
			return nil, &werrors.BadStructure{Detail: "execution exceeded the maximum queue size; a Condition node likely never became ready"}
		}

		item := r.queue[0]
		r.queue = r.queue[1:]
		if r.executed[item.nodeID] {
			continue
		}

		n, ok := r.nodesByID[item.nodeID]
		if !ok {
			return nil, &werrors.MissingNode{NodeID: item.nodeID.String()}
		}

		if n.Kind == node.KindCondition && !r.parentsReady(n.ID) {
			r.queue = append(r.queue, item)
			continue
		}

		log.Debug("evaluating node", "nodeId", n.ID.String(), "kind", string(n.Kind))
		output, successors, err := r.evaluate(ctx, n, item.incoming)
		if err != nil {
			return nil, err
		}

		r.executed[n.ID] = true
		r.outputs[n.ID] = output
		r.lastOutput = output
		r.queue = append(r.queue, successors...)
	}

	return r.lastOutput, nil
}

// parentsReady reports whether every recorded parent of id has executed.
// In the tree model of §3 a node always has exactly one parent, so this is
// a single-element check in practice; it is written generally per the
// Design Notes' "precomputation mapping each Condition node to its set of
// parent ids" so a future DAG-shaped builder would get fan-in for free.
func (r *run) parentsReady(id core.NodeID) bool {
	for _, parentID := range r.parentsOf[id] {
		if !r.executed[parentID] {
			return false
		}
	}
	return true
}

// indexNodes returns a flat nodeID → *node.Node map for every node
// reachable from root, including root itself.
func indexNodes(root *node.Node) map[core.NodeID]*node.Node {
	out := map[core.NodeID]*node.Node{}
	if root == nil {
		return out
	}
	queue := []*node.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out[cur.ID] = cur
		queue = append(queue, node.OutgoingChildren(cur)...)
	}
	return out
}

// indexParents returns, for every node reachable from root, the list of
// its direct parents' ids.
func indexParents(root *node.Node) map[core.NodeID][]core.NodeID {
	out := map[core.NodeID][]core.NodeID{}
	if root == nil {
		return out
	}
	queue := []*node.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range node.OutgoingChildren(cur) {
			out[child.ID] = append(out[child.ID], cur.ID)
			queue = append(queue, child)
		}
	}
	return out
}

// nonTriggerParentOutput returns the output of n's single non-trigger
// executed parent, per spec.md §4.F's Condition/Boolean evaluation
// contract. If every recorded parent is the trigger (n hangs directly off
// it), the trigger's own output (the run's userContext) is used instead.
func (r *run) nonTriggerParentOutput(n *node.Node) (core.NodeID, any) {
	var fallbackID core.NodeID
	var fallbackOutput any
	haveFallback := false
	for _, parentID := range r.parentsOf[n.ID] {
		parent, ok := r.nodesByID[parentID]
		if !ok {
			continue
		}
		if parent.Kind != node.KindCronjobTrigger {
			return parentID, r.outputs[parentID]
		}
		if !haveFallback {
			fallbackID, fallbackOutput = parentID, r.outputs[parentID]
			haveFallback = true
		}
	}
	return fallbackID, fallbackOutput
}
