package compiler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/graphflow/engine/node"
	"github.com/graphflow/engine/werrors"
)

// rawNodeConfig mirrors node.Node's per-kind shape declaratively, the way
// the teacher's cli/helpers/workflow.go validates a raw decoded workflow
// config before it is ever built into a tree. This catches a malformed
// node (e.g. a Tool with no ToolIdentifier, a CronjobTrigger with a
// syntactically invalid schedule) in one pass over the struct tags instead
// of the builder's constructors rejecting it one node at a time.
type rawNodeConfig struct {
	Kind           string `validate:"required,oneof=cronjob-trigger tool converter condition boolean fixed-input upsert-state skip"`
	Cron           string `validate:"required_if=Kind cronjob-trigger,omitempty,cron"`
	ToolIdentifier string `validate:"required_if=Kind tool"`
	Code           string `validate:"required_if=Kind converter,required_if=Kind condition,required_if=Kind boolean"`
	Key            string `validate:"required_if=Kind upsert-state"`
}

// rawValidator wraps a *validator.Validate with the custom tags this
// package registers, initialized once regardless of how many Compile
// calls share it.
type rawValidator struct {
	v    *validator.Validate
	once sync.Once
}

var shapeValidator = &rawValidator{v: validator.New()}

func (rv *rawValidator) init() {
	rv.once.Do(func() {
		_ = rv.v.RegisterValidation("cron", validateCronTag)
	})
}

// validateCronTag mirrors the teacher's validateCron: a schedule is only
// accepted if it actually fires at least once within the coming year, so
// a syntactically valid but practically dead expression (e.g. Feb 30th)
// is rejected too.
func validateCronTag(fl validator.FieldLevel) bool {
	cronExpr := fl.Field().String()
	if cronExpr == "" {
		return true
	}
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return false
	}
	now := time.Now()
	next := schedule.Next(now)
	return !next.IsZero() && next.Before(now.AddDate(1, 0, 0))
}

func toRawNodeConfig(n *node.Node) rawNodeConfig {
	return rawNodeConfig{
		Kind:           string(n.Kind),
		Cron:           n.Cron,
		ToolIdentifier: n.ToolIdentifier,
		Code:           n.Code,
		Key:            n.Key,
	}
}

// validateRawShape walks root the way validateStructure does, but checks
// each node's raw decoded shape against rawNodeConfig's declarative tags
// before any of the tree-level invariants run. This is the stage that
// would catch a workflow loaded straight from YAML with, say, an empty
// ToolIdentifier on a tool node, independent of whether it was ever built
// through node.New*.
func validateRawShape(root *node.Node) error {
	shapeValidator.init()

	var errs []string
	var walk func(n *node.Node)
	walk = func(n *node.Node) {
		if n == nil {
			return
		}
		if err := shapeValidator.v.Struct(toRawNodeConfig(n)); err != nil {
			errs = append(errs, fmt.Sprintf("node %q: %s", n.ID, err))
		}
		for _, c := range node.OutgoingChildren(n) {
			walk(c)
		}
	}
	walk(root)

	if len(errs) > 0 {
		return &werrors.BadStructure{Detail: fmt.Sprintf("raw shape validation failed: %v", errs)}
	}
	return nil
}
