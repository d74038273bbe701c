// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

// logic is validator pass 5: unreachable branches (a literal `true`
// condition), contradictions in `and` chains comparing the same
// left-hand variable against incompatible bounds, and an `else` branch
// following a tautological `if` — grounded on the teacher's
// compiler.go detectConditionWarnings (always-true/unreachable
// detection), generalized to this language's comparison operators.
func logic(rs *dsl.RuleSet) []Issue {
	var issues []Issue

	check := func(c *dsl.Condition, hasElse bool) {
		if isTautology(c) {
			issues = append(issues, Issue{
				Code: "LOG_001", Severity: SeverityWarning,
				Location: c.Loc,
				Message:  "condition is always true",
			})
			if hasElse {
				issues = append(issues, Issue{
					Code: "LOG_002", Severity: SeverityWarning,
					Location: c.Loc,
					Message:  "else branch is unreachable because the condition is always true",
				})
			}
		}
		issues = append(issues, findContradictions(c)...)
	}

	switch rs.Form {
	case dsl.FormWhenThenElse:
		// §4.6: "evaluate the when-list as a conjunction" — so
		// contradiction-detection treats the whole list as one implicit
		// AND, matching runtime semantics, even though each entry parses
		// as its own top-level Condition.
		conjunction := &dsl.Condition{Kind: dsl.CondLogical, LogicalOp: dsl.LogicalAnd, Children: rs.When}
		issues = append(issues, findContradictions(conjunction)...)
		for _, c := range rs.When {
			check(c, len(rs.Else) > 0)
		}
	case dsl.FormConditions:
		check(rs.Condition, len(rs.Else) > 0)
	case dsl.FormRulesList:
		for _, sr := range rs.Rules {
			check(sr.Condition, len(sr.Else) > 0)
		}
	}
	return issues
}

func isTautology(c *dsl.Condition) bool {
	if c == nil {
		return false
	}
	if c.Kind == dsl.CondExpression && c.Expr != nil && c.Expr.Kind == dsl.ExprLiteral {
		return c.Expr.Literal.Truthy()
	}
	return false
}

// findContradictions flags `and` chains that compare the same left-hand
// variable against mutually exclusive bounds, e.g. `x > 10 and x < 5`.
func findContradictions(c *dsl.Condition) []Issue {
	if c == nil || c.Kind != dsl.CondLogical || c.LogicalOp != dsl.LogicalAnd {
		return nil
	}
	type bound struct {
		op  dsl.BinaryOperator
		val decimal.Decimal
		loc dsl.SourceLocation
	}
	byVar := map[string][]bound{}
	for _, child := range c.Children {
		if child.Kind != dsl.CondComparison {
			continue
		}
		if child.CompareLeft.Kind != dsl.ExprVariableRef || child.CompareRight.Kind != dsl.ExprLiteral {
			continue
		}
		d, ok := child.CompareRight.Literal.AsDecimal()
		if !ok {
			continue
		}
		byVar[child.CompareLeft.RefName] = append(byVar[child.CompareLeft.RefName], bound{child.CompareOp, d, child.Loc})
	}
	var issues []Issue
	for name, bounds := range byVar {
		for i := 0; i < len(bounds); i++ {
			for j := i + 1; j < len(bounds); j++ {
				if contradicts(bounds[i].op, bounds[i].val, bounds[j].op, bounds[j].val) {
					issues = append(issues, Issue{
						Code: "LOG_003", Severity: SeverityError,
						Location: bounds[j].loc,
						Message:  fmt.Sprintf("contradictory bounds on %q in the same and-chain", name),
					})
				}
			}
		}
	}
	return issues
}

func contradicts(op1 dsl.BinaryOperator, v1 decimal.Decimal, op2 dsl.BinaryOperator, v2 decimal.Decimal) bool {
	isLowerBound := func(op dsl.BinaryOperator) bool { return op == dsl.OpGt || op == dsl.OpGe }
	isUpperBound := func(op dsl.BinaryOperator) bool { return op == dsl.OpLt || op == dsl.OpLe }
	if isLowerBound(op1) && isUpperBound(op2) {
		return v1.GreaterThan(v2) || (v1.Equal(v2) && (op1 == dsl.OpGt || op2 == dsl.OpLt))
	}
	if isLowerBound(op2) && isUpperBound(op1) {
		return v2.GreaterThan(v1) || (v2.Equal(v1) && (op2 == dsl.OpGt || op1 == dsl.OpLt))
	}
	return false
}
