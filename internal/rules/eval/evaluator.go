// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package eval implements the Evaluator from SPEC_FULL.md §4.6:
// tree-walking visitor dispatch over the AST from internal/rules/dsl,
// threading internal/rules/evalctx for the three-tier variable space
// and internal/rules/builtin for comparison predicates and function
// calls. Grounded on the teacher's internal/access/policy/dsl
// evaluator.go dispatch switch (evalCondition -> evalComparison/evalHas/
// ...), generalized to evalExpression/evalCondition/evalAction/
// evalRuleSet, but threading context.Context for cancellation at the
// HTTP-call suspension point and returning typed errors instead of
// silently coercing to false.
package eval

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/holomush/ruleforge/internal/rules/builtin"
	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// Error is an EvaluationError: a stable code from §7's error-kind
// table, a message, and the source location when one is available.
type Error struct {
	Code     string
	Message  string
	Location dsl.SourceLocation
}

func (e *Error) Error() string {
	if (e.Location != dsl.SourceLocation{}) {
		return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Location)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code string, loc dsl.SourceLocation, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Location: loc}
}

// EvalExpression dispatches on expr.Kind, per §4.6's expression rules.
func EvalExpression(ctx context.Context, ec *evalctx.Context, expr *dsl.Expression) (value.Value, error) {
	if expr == nil {
		return value.Null(), nil
	}
	switch expr.Kind {
	case dsl.ExprLiteral:
		return expr.Literal, nil

	case dsl.ExprVariableRef:
		return evalVariableRef(ec, expr)

	case dsl.ExprBinaryOp:
		return evalBinaryOp(ctx, ec, expr)

	case dsl.ExprUnaryOp:
		return evalUnaryOp(ctx, ec, expr)

	case dsl.ExprFunctionCall:
		return evalFunctionCall(ctx, ec, expr)

	case dsl.ExprJsonPath:
		return evalJsonPath(ctx, ec, expr)

	case dsl.ExprConditional:
		cond, err := EvalExpression(ctx, ec, expr.Cond)
		if err != nil {
			return value.Null(), err
		}
		if cond.Truthy() {
			return EvalExpression(ctx, ec, expr.Then)
		}
		return EvalExpression(ctx, ec, expr.Else)

	default:
		return value.Null(), newError("INTERNAL", expr.Loc, "unknown expression kind %d", expr.Kind)
	}
}

func evalVariableRef(ec *evalctx.Context, expr *dsl.Expression) (value.Value, error) {
	if isDerivedVariable(expr.RefName) {
		if v, ok := ec.Lookup(expr.RefName, dsl.ClassComputed); ok {
			return v, nil
		}
		return evalDerivedVariable(ec, expr.RefName), nil
	}

	v, ok := ec.Lookup(expr.RefName, expr.RefClass)
	if ok {
		return v, nil
	}
	if expr.RefClass == dsl.ClassConstant {
		return value.Null(), newError("UNDEFINED_CONSTANT", expr.Loc, "undefined constant %q", expr.RefName)
	}
	// unresolved input: returns Null per §4.6 ("actions may test for
	// null explicitly").
	return value.Null(), nil
}

func evalBinaryOp(ctx context.Context, ec *evalctx.Context, expr *dsl.Expression) (value.Value, error) {
	op := dsl.NormalizeWordAlias(expr.BinOp)

	// and/or short-circuit before evaluating the right operand.
	switch op {
	case dsl.OpAnd:
		l, err := EvalExpression(ctx, ec, expr.Left)
		if err != nil {
			return value.Null(), err
		}
		if !l.Truthy() {
			return value.Bool(false), nil
		}
		r, err := EvalExpression(ctx, ec, expr.Right)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(r.Truthy()), nil
	case dsl.OpOr:
		l, err := EvalExpression(ctx, ec, expr.Left)
		if err != nil {
			return value.Null(), err
		}
		if l.Truthy() {
			return value.Bool(true), nil
		}
		r, err := EvalExpression(ctx, ec, expr.Right)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(r.Truthy()), nil
	case dsl.OpNullCoalesce:
		l, err := EvalExpression(ctx, ec, expr.Left)
		if err != nil {
			return value.Null(), err
		}
		if !l.IsNull() {
			return l, nil
		}
		return EvalExpression(ctx, ec, expr.Right)
	}

	left, err := EvalExpression(ctx, ec, expr.Left)
	if err != nil {
		return value.Null(), err
	}
	right, err := EvalExpression(ctx, ec, expr.Right)
	if err != nil {
		return value.Null(), err
	}

	switch op {
	case dsl.OpEq:
		return value.Bool(value.Equal(left, right)), nil
	case dsl.OpNe:
		return value.Bool(!value.Equal(left, right)), nil
	case dsl.OpGt, dsl.OpLt, dsl.OpGe, dsl.OpLe:
		return evalOrderedCompare(expr, op, left, right)
	case dsl.OpAdd, dsl.OpSub, dsl.OpMul, dsl.OpDiv, dsl.OpMod, dsl.OpPow:
		return evalArithmetic(expr, op, left, right)
	default:
		ok, err := builtin.CompareWordOp(string(op), left, &right)
		if err != nil {
			if be, isBuiltinErr := err.(*builtin.Error); isBuiltinErr {
				return value.Null(), newError(be.Code, expr.Loc, "%s", be.Message)
			}
			return value.Null(), newError("TYPE", expr.Loc, "%s", err.Error())
		}
		return value.Bool(ok), nil
	}
}

func evalOrderedCompare(expr *dsl.Expression, op dsl.BinaryOperator, left, right value.Value) (value.Value, error) {
	ld, lok := value.CoerceDecimal(left)
	rd, rok := value.CoerceDecimal(right)
	if !lok || !rok {
		return value.Null(), newError("TYPE", expr.Loc, "%s requires both operands to coerce to Decimal", op)
	}
	switch op {
	case dsl.OpGt:
		return value.Bool(ld.GreaterThan(rd)), nil
	case dsl.OpLt:
		return value.Bool(ld.LessThan(rd)), nil
	case dsl.OpGe:
		return value.Bool(ld.GreaterThanOrEqual(rd)), nil
	default: // OpLe
		return value.Bool(ld.LessThanOrEqual(rd)), nil
	}
}

func evalArithmetic(expr *dsl.Expression, op dsl.BinaryOperator, left, right value.Value) (value.Value, error) {
	ld, lok := value.CoerceDecimal(left)
	rd, rok := value.CoerceDecimal(right)
	if !lok || !rok {
		return value.Null(), newError("TYPE", expr.Loc, "%s requires both operands to coerce to Decimal", op)
	}
	switch op {
	case dsl.OpAdd:
		return value.Decimal(ld.Add(rd)), nil
	case dsl.OpSub:
		return value.Decimal(ld.Sub(rd)), nil
	case dsl.OpMul:
		return value.Decimal(ld.Mul(rd)), nil
	case dsl.OpDiv:
		if rd.IsZero() {
			return value.Null(), newError("DIVISION_BY_ZERO", expr.Loc, "division by zero")
		}
		return value.Decimal(ld.DivRound(rd, 10)), nil
	case dsl.OpMod:
		if rd.IsZero() {
			return value.Null(), newError("DIVISION_BY_ZERO", expr.Loc, "modulo by zero")
		}
		return value.Decimal(ld.Mod(rd)), nil
	case dsl.OpPow:
		return value.Decimal(ld.Pow(rd)), nil
	default:
		return value.Null(), newError("INTERNAL", expr.Loc, "unhandled arithmetic operator %s", op)
	}
}

func evalUnaryOp(ctx context.Context, ec *evalctx.Context, expr *dsl.Expression) (value.Value, error) {
	operand, err := EvalExpression(ctx, ec, expr.Operand)
	if err != nil {
		return value.Null(), err
	}
	switch expr.UnOp {
	case dsl.OpNot:
		return value.Bool(!operand.Truthy()), nil
	case dsl.OpNeg:
		d, ok := value.CoerceDecimal(operand)
		if !ok {
			return value.Null(), newError("TYPE", expr.Loc, "unary - requires a Decimal operand")
		}
		return value.Decimal(d.Neg()), nil
	default:
		return value.Null(), newError("INTERNAL", expr.Loc, "unknown unary operator %s", expr.UnOp)
	}
}

// __pair and __list are synthetic function names the parser uses to defer
// evaluation of between's bounds and non-literal list literals (see
// parser_expr.go); they are not registered builtins and never reach
// builtin.Call.
func evalFunctionCall(ctx context.Context, ec *evalctx.Context, expr *dsl.Expression) (value.Value, error) {
	args := make([]value.Value, len(expr.Args))
	for i, a := range expr.Args {
		v, err := EvalExpression(ctx, ec, a)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}
	switch expr.FuncName {
	case "__pair", "__list":
		return value.List(args), nil
	}
	v, err := builtin.Call(ctx, expr.FuncName, args)
	if err != nil {
		if be, ok := err.(*builtin.Error); ok {
			return value.Null(), newError(be.Code, expr.Loc, "%s", be.Message)
		}
		return value.Null(), newError("INTERNAL", expr.Loc, "%s", err.Error())
	}
	return v, nil
}

func evalJsonPath(ctx context.Context, ec *evalctx.Context, expr *dsl.Expression) (value.Value, error) {
	root, err := EvalExpression(ctx, ec, expr.PathExpr)
	if err != nil {
		return value.Null(), err
	}
	v, ok := builtin.EvalJSONPath(root, expr.Path)
	if !ok {
		return value.Null(), nil
	}
	return v, nil
}

// EvalCondition dispatches on cond.Kind, per §4.6's condition rules.
func EvalCondition(ctx context.Context, ec *evalctx.Context, cond *dsl.Condition) (bool, error) {
	if cond == nil {
		return true, nil
	}
	switch cond.Kind {
	case dsl.CondComparison:
		left, err := EvalExpression(ctx, ec, cond.CompareLeft)
		if err != nil {
			return false, err
		}
		var rightPtr *value.Value
		if cond.CompareRight != nil {
			right, err := EvalExpression(ctx, ec, cond.CompareRight)
			if err != nil {
				return false, err
			}
			rightPtr = &right
		}
		return evalComparisonCondition(cond, left, rightPtr)

	case dsl.CondLogical:
		switch cond.LogicalOp {
		case dsl.LogicalNot:
			if len(cond.Children) != 1 {
				return false, newError("INTERNAL", cond.Loc, "logical not requires exactly one child")
			}
			r, err := EvalCondition(ctx, ec, cond.Children[0])
			if err != nil {
				return false, err
			}
			return !r, nil
		case dsl.LogicalAnd:
			for _, child := range cond.Children {
				r, err := EvalCondition(ctx, ec, child)
				if err != nil {
					return false, err
				}
				if !r {
					return false, nil
				}
			}
			return true, nil
		case dsl.LogicalOr:
			for _, child := range cond.Children {
				r, err := EvalCondition(ctx, ec, child)
				if err != nil {
					return false, err
				}
				if r {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, newError("INTERNAL", cond.Loc, "unknown logical operator %s", cond.LogicalOp)
		}

	case dsl.CondExpression:
		v, err := EvalExpression(ctx, ec, cond.Expr)
		if err != nil {
			return false, err
		}
		return v.Truthy(), nil

	default:
		return false, newError("INTERNAL", cond.Loc, "unknown condition kind %d", cond.Kind)
	}
}

func evalComparisonCondition(cond *dsl.Condition, left value.Value, right *value.Value) (bool, error) {
	op := dsl.NormalizeWordAlias(cond.CompareOp)
	switch op {
	case dsl.OpEq:
		return value.Equal(left, deref(right)), nil
	case dsl.OpNe:
		return !value.Equal(left, deref(right)), nil
	case dsl.OpGt, dsl.OpLt, dsl.OpGe, dsl.OpLe:
		ld, lok := value.CoerceDecimal(left)
		rd, rok := value.CoerceDecimal(deref(right))
		if !lok || !rok {
			return false, newError("TYPE", cond.Loc, "%s requires both operands to coerce to Decimal", op)
		}
		return compareOrdered(op, ld, rd), nil
	default:
		ok, err := builtin.CompareWordOp(string(op), left, right)
		if err != nil {
			if be, isBuiltinErr := err.(*builtin.Error); isBuiltinErr {
				return false, newError(be.Code, cond.Loc, "%s", be.Message)
			}
			return false, newError("TYPE", cond.Loc, "%s", err.Error())
		}
		return ok, nil
	}
}

func compareOrdered(op dsl.BinaryOperator, ld, rd decimal.Decimal) bool {
	switch op {
	case dsl.OpGt:
		return ld.GreaterThan(rd)
	case dsl.OpLt:
		return ld.LessThan(rd)
	case dsl.OpGe:
		return ld.GreaterThanOrEqual(rd)
	default:
		return ld.LessThanOrEqual(rd)
	}
}

func deref(v *value.Value) value.Value {
	if v == nil {
		return value.Null()
	}
	return *v
}
