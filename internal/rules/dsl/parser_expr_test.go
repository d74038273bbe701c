// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

func TestParseExprPrecedence(t *testing.T) {
	expr, err := dsl.ParseExpr("<test>", "1 + 2 * 3")
	require.NoError(t, err)
	require.Equal(t, dsl.ExprBinaryOp, expr.Kind)
	assert.Equal(t, dsl.OpAdd, expr.BinOp)
	assert.Equal(t, dsl.ExprLiteral, expr.Left.Kind)
	assert.Equal(t, dsl.ExprBinaryOp, expr.Right.Kind)
	assert.Equal(t, dsl.OpMul, expr.Right.BinOp)
}

func TestParseExprExponentRightAssoc(t *testing.T) {
	expr, err := dsl.ParseExpr("<test>", "2 ^ 3 ^ 2")
	require.NoError(t, err)
	require.Equal(t, dsl.ExprBinaryOp, expr.Kind)
	assert.Equal(t, dsl.OpPow, expr.BinOp)
	require.Equal(t, dsl.ExprBinaryOp, expr.Right.Kind)
	assert.Equal(t, dsl.OpPow, expr.Right.BinOp)
}

func TestParseExprWordOperatorAtLeast(t *testing.T) {
	expr, err := dsl.ParseExpr("<test>", "creditScore at_least 700")
	require.NoError(t, err)
	require.Equal(t, dsl.ExprBinaryOp, expr.Kind)
	assert.Equal(t, dsl.OpAtLeast, expr.BinOp)
	assert.Equal(t, "creditScore", expr.Left.RefName)
	assert.Equal(t, dsl.ClassInput, expr.Left.RefClass)
}

func TestParseExprBetween(t *testing.T) {
	expr, err := dsl.ParseExpr("<test>", "score between 1 and 10")
	require.NoError(t, err)
	assert.Equal(t, dsl.OpBetween, expr.BinOp)
	require.Equal(t, dsl.ExprFunctionCall, expr.Right.Kind)
	assert.Equal(t, "__pair", expr.Right.FuncName)
}

func TestParseExprUnmatchedParenIsFatal(t *testing.T) {
	_, err := dsl.ParseExpr("<test>", "(1 + 2")
	assert.Error(t, err)
	_, err = dsl.ParseExpr("<test>", "1 + 2)")
	assert.Error(t, err)
}

func TestParseExprReservedWordRejected(t *testing.T) {
	_, err := dsl.ParseExpr("<test>", "and + 1")
	assert.Error(t, err)
}

func TestParseExprJsonPathDotChain(t *testing.T) {
	expr, err := dsl.ParseExpr("<test>", "payload.address.city")
	require.NoError(t, err)
	require.Equal(t, dsl.ExprJsonPath, expr.Kind)
	assert.Equal(t, "address.city", expr.Path)
}

func TestNameClassification(t *testing.T) {
	assert.Equal(t, dsl.ClassInput, dsl.Classify("creditScore"))
	assert.Equal(t, dsl.ClassConstant, dsl.Classify("MIN_CREDIT_SCORE"))
	assert.Equal(t, dsl.ClassComputed, dsl.Classify("debt_to_income"))
	assert.Equal(t, dsl.ClassReserved, dsl.Classify("and"))
}
