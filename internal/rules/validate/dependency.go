// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import (
	"fmt"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

// dependency is validator pass 3: walk the RuleSet in evaluation order,
// maintaining a growing `produced` set of snake_case names; any
// snake_case reference not yet in `produced` is an order-of-operations
// error naming the exact location, per §4.3's DEP_002 scenario.
func dependency(rs *dsl.RuleSet) []Issue {
	declaredInputs := map[string]bool{}
	for _, in := range rs.Inputs {
		declaredInputs[in] = true
	}
	d := &dependencyWalker{produced: map[string]bool{}, declaredInputs: declaredInputs}
	switch rs.Form {
	case dsl.FormWhenThenElse:
		for _, c := range rs.When {
			d.checkCondition(c)
		}
		d.checkBranch(rs.Then)
		d.checkBranch(rs.Else)
	case dsl.FormConditions:
		d.checkCondition(rs.Condition)
		d.checkBranch(rs.Then)
		d.checkBranch(rs.Else)
	case dsl.FormRulesList:
		for _, sr := range rs.Rules {
			d.checkCondition(sr.Condition)
			d.checkBranch(sr.Then)
			d.checkBranch(sr.Else)
		}
	}
	return d.issues
}

type dependencyWalker struct {
	produced       map[string]bool
	declaredInputs map[string]bool
	issues         []Issue
}

func (d *dependencyWalker) checkCondition(c *dsl.Condition) {
	dsl.WalkCondition(c, dsl.VisitorFunc(d.checkRef))
}

// checkRef only tracks names that can plausibly be an action-produced
// name: ClassComputed refs always qualify; a ClassInput ref qualifies
// too if it isn't one of the rule-set's declared inputs, since a
// single-word lowercase name like "tier" is lexically ambiguous between
// camelCase input and trivial snake_case computed (see dsl.Classify).
func (d *dependencyWalker) checkRef(ref *dsl.Expression) {
	switch ref.RefClass {
	case dsl.ClassComputed:
	case dsl.ClassInput:
		if d.declaredInputs[ref.RefName] {
			return
		}
	default:
		return
	}
	if !d.produced[ref.RefName] {
		d.issues = append(d.issues, Issue{
			Code: "DEP_002", Severity: SeverityCritical,
			Location:   ref.Loc,
			Message:    fmt.Sprintf("%q is referenced before it is produced by any prior action", ref.RefName),
			Suggestion: fmt.Sprintf("move the action that sets %q earlier, or reference it only after it is set", ref.RefName),
		})
	}
}

func (d *dependencyWalker) checkBranch(actions []*dsl.Action) {
	for _, a := range actions {
		d.checkAction(a)
	}
}

func (d *dependencyWalker) checkAction(a *dsl.Action) {
	switch a.Kind {
	case dsl.ActionSet, dsl.ActionCalculate:
		dsl.WalkExpression(a.Value, dsl.VisitorFunc(d.checkRef))
		d.produced[a.Target] = true
	case dsl.ActionFunctionCall:
		dsl.WalkExpression(a.Call, dsl.VisitorFunc(d.checkRef))
	case dsl.ActionConditional:
		d.checkCondition(a.Cond)
		d.checkBranch(a.ThenActions)
		d.checkBranch(a.ElseActions)
	case dsl.ActionCircuitBreaker:
		// no referenced names beyond the message string
	}
}
