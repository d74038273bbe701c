// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl

// Visitor receives every VariableRef encountered during a walk, along
// with the node it was found in. Validators, the constant resolver, and
// the dependency/circular passes all share this single traversal instead
// of each re-implementing AST descent — the "visitor interface" called
// for by the AST component's responsibility in SPEC_FULL.md §2.
type Visitor interface {
	VisitVariableRef(ref *Expression)
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(ref *Expression)

func (f VisitorFunc) VisitVariableRef(ref *Expression) { f(ref) }

// WalkExpression visits every VariableRef reachable from expr, including
// through function-call arguments, conditionals, and JsonPath bases.
func WalkExpression(expr *Expression, v Visitor) {
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ExprVariableRef:
		v.VisitVariableRef(expr)
	case ExprBinaryOp:
		WalkExpression(expr.Left, v)
		WalkExpression(expr.Right, v)
	case ExprUnaryOp:
		WalkExpression(expr.Operand, v)
	case ExprFunctionCall:
		for _, a := range expr.Args {
			WalkExpression(a, v)
		}
	case ExprJsonPath:
		WalkExpression(expr.PathExpr, v)
	case ExprConditional:
		WalkExpression(expr.Cond, v)
		WalkExpression(expr.Then, v)
		WalkExpression(expr.Else, v)
	}
}

// WalkCondition visits every VariableRef reachable from cond.
func WalkCondition(cond *Condition, v Visitor) {
	if cond == nil {
		return
	}
	switch cond.Kind {
	case CondComparison:
		WalkExpression(cond.CompareLeft, v)
		WalkExpression(cond.CompareRight, v)
	case CondLogical:
		for _, c := range cond.Children {
			WalkCondition(c, v)
		}
	case CondExpression:
		WalkExpression(cond.Expr, v)
	}
}

// WalkAction visits every VariableRef reachable from action, including
// nested conditional-action branches.
func WalkAction(action *Action, v Visitor) {
	if action == nil {
		return
	}
	switch action.Kind {
	case ActionSet, ActionCalculate:
		WalkExpression(action.Value, v)
	case ActionFunctionCall:
		WalkExpression(action.Call, v)
	case ActionConditional:
		WalkCondition(action.Cond, v)
		for _, a := range action.ThenActions {
			WalkAction(a, v)
		}
		for _, a := range action.ElseActions {
			WalkAction(a, v)
		}
	case ActionCircuitBreaker:
		// no expression payload beyond the message string
	}
}

// WalkRuleSet visits every VariableRef in rs, across whichever primary
// form is populated.
func WalkRuleSet(rs *RuleSet, v Visitor) {
	if rs == nil {
		return
	}
	for _, c := range rs.When {
		WalkCondition(c, v)
	}
	WalkCondition(rs.Condition, v)
	for _, a := range rs.Then {
		WalkAction(a, v)
	}
	for _, a := range rs.Else {
		WalkAction(a, v)
	}
	for _, sr := range rs.Rules {
		WalkCondition(sr.Condition, v)
		for _, a := range sr.Then {
			WalkAction(a, v)
		}
		for _, a := range sr.Else {
			WalkAction(a, v)
		}
	}
	if rs.CircuitBreaker != nil {
		WalkCondition(rs.CircuitBreaker.Condition, v)
	}
}

// CollectRefsByClass returns the distinct names of every VariableRef in rs
// whose classification matches class, in first-seen order.
func CollectRefsByClass(rs *RuleSet, class Classification) []string {
	seen := map[string]bool{}
	var names []string
	WalkRuleSet(rs, VisitorFunc(func(ref *Expression) {
		if ref.RefClass != class || seen[ref.RefName] {
			return
		}
		seen[ref.RefName] = true
		names = append(names, ref.RefName)
	}))
	return names
}
