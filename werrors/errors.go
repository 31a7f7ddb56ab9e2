// Package werrors defines the typed error taxonomy raised by the builder,
// compiler, template resolver and execution engine. Every error carries a
// human-readable message plus the structured fields a caller needs to act
// on it without parsing strings.
package werrors

import "fmt"

// BadStructure reports a violation of a workflow tree invariant, raised
// synchronously during construction or by a builder mutation.
type BadStructure struct {
	Detail string
}

func (e *BadStructure) Error() string {
	return fmt.Sprintf("bad workflow structure: %s", e.Detail)
}

// ReferenceField names the namespace a template reference was resolved
// against.
type ReferenceField string

const (
	FieldInput   ReferenceField = "input"
	FieldContext ReferenceField = "context"
	FieldState   ReferenceField = "state"
)

// expectedContextFields documents the context fields a FixedInput template
// is normally expected to find, used to enrich ReferenceError messages when
// field == context.
var expectedContextFields = []string{
	"userId", "workflowId", "triggeredAt", "firstName", "lastName", "email",
}

// ReferenceError is raised by the template resolver when a `{{field.path}}`
// expression cannot be resolved because the namespace or one of its path
// segments is absent.
type ReferenceError struct {
	Field     ReferenceField
	Reference string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q on %s", e.Reference, e.Field)
}

// HumanReadableMessage enriches the bare error with guidance tailored to
// the namespace involved. For field=context it lists the well-known context
// fields a caller is expected to supply.
func (e *ReferenceError) HumanReadableMessage() string {
	if e.Field != FieldContext {
		return fmt.Sprintf("could not find %q in %s; check the upstream node's output", e.Reference, e.Field)
	}
	return fmt.Sprintf(
		"could not find %q in context; expected context fields include: %v",
		e.Reference, expectedContextFields,
	)
}

// ToolsMissing is a compilation failure: one or more tool identifiers
// referenced by Tool nodes do not exist in the Tool Registry.
type ToolsMissing struct {
	MissingTools []string
}

func (e *ToolsMissing) Error() string {
	return fmt.Sprintf("tools missing from registry: %v", e.MissingTools)
}

// SchemaIssue groups one schema error with its suggestion. The schema
// compatibility checker does not produce it; it reports errors and
// suggestions as separate string slices.
type SchemaIssue struct {
	Path       string
	Message    string
	Suggestion string
}

// SchemaMismatch is a compilation failure: a producer→consumer Tool edge
// failed the JSON-Schema compatibility check.
type SchemaMismatch struct {
	Errors      []string
	Suggestions []string
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("schema mismatch: %v", e.Errors)
}

// MissingNode is raised by the execution engine when a successor reference
// (a child link, or a Condition's returned identifier) does not resolve to
// a node present in the tree.
type MissingNode struct {
	NodeID string
}

func (e *MissingNode) Error() string {
	return fmt.Sprintf("node %q not found in workflow", e.NodeID)
}

// EmptyWorkflow is raised when the trigger has no child to execute.
type EmptyWorkflow struct{}

func (e *EmptyWorkflow) Error() string {
	return "workflow trigger has no child"
}

// ToolFailure wraps an error raised by a Tool node's invocation.
type ToolFailure struct {
	NodeID string
	Cause  error
}

func (e *ToolFailure) Error() string {
	return fmt.Sprintf("tool node %q failed: %v", e.NodeID, e.Cause)
}

func (e *ToolFailure) Unwrap() error { return e.Cause }

// ConverterFailure wraps an error raised by a Converter node's sandboxed
// code, or a failure to JSON-round-trip its output.
type ConverterFailure struct {
	NodeID string
	Cause  error
}

func (e *ConverterFailure) Error() string {
	return fmt.Sprintf("converter node %q failed: %v", e.NodeID, e.Cause)
}

func (e *ConverterFailure) Unwrap() error { return e.Cause }

// ConditionFailure wraps an error raised by a Condition or Boolean node's
// sandboxed predicate code.
type ConditionFailure struct {
	NodeID string
	Cause  error
}

func (e *ConditionFailure) Error() string {
	return fmt.Sprintf("condition node %q failed: %v", e.NodeID, e.Cause)
}

func (e *ConditionFailure) Unwrap() error { return e.Cause }

// Cancelled is surfaced when the caller's context is canceled while a run
// is suspended on an external call.
type Cancelled struct {
	Cause error
}

func (e *Cancelled) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("run cancelled: %v", e.Cause)
	}
	return "run cancelled"
}

func (e *Cancelled) Unwrap() error { return e.Cause }
