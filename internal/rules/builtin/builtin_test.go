// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/value"
)

func TestDivideByZeroRaisesDivisionByZero(t *testing.T) {
	_, err := Call(context.Background(), "divide", []value.Value{value.Int(10), value.Int(0)})
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "DIVISION_BY_ZERO", e.Code)
}

func TestRatioZeroDenominatorReturnsInfinitySentinel(t *testing.T) {
	v, err := Call(context.Background(), "ratio", []value.Value{value.Int(10), value.Int(0)})
	require.NoError(t, err)
	require.True(t, v.IsInfinity())
}

func TestRoutingNumberChecksum(t *testing.T) {
	require.True(t, ValidRoutingNumber("021000021"))
	require.False(t, ValidRoutingNumber("021000020"))
}

func TestArithmeticExact(t *testing.T) {
	v, err := Call(context.Background(), "multiply", []value.Value{value.Float(0.4), value.Float(1.25)})
	require.NoError(t, err)
	d, ok := v.AsDecimal()
	require.True(t, ok)
	require.Equal(t, "0.5", d.String())
}

func TestJSONPathLengthPseudoProperty(t *testing.T) {
	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	v, ok := EvalJSONPath(list, "length")
	require.True(t, ok)
	d, _ := v.AsDecimal()
	require.Equal(t, int64(3), d.IntPart())
}

func TestJSONPathIndexAccess(t *testing.T) {
	list := value.List([]value.Value{value.Text("a"), value.Text("b")})
	v, ok := EvalJSONPath(list, "[1]")
	require.True(t, ok)
	s, _ := v.AsText()
	require.Equal(t, "b", s)
}

func TestArityError(t *testing.T) {
	_, err := Call(context.Background(), "add", []value.Value{value.Int(1)})
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "ARITY", e.Code)
}

func TestUnknownFunction(t *testing.T) {
	_, err := Call(context.Background(), "no_such_fn", nil)
	require.Error(t, err)
}

func TestCompareWordOpUnaryPredicate(t *testing.T) {
	ok, err := CompareWordOp("is_empty", value.Text(""), nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompareWordOpBetween(t *testing.T) {
	pair := value.List([]value.Value{value.Int(1), value.Int(10)})
	ok, err := CompareWordOp("between", value.Int(5), &pair)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompareWordOpContainsListMembership(t *testing.T) {
	list := value.List([]value.Value{value.Text("GOLD"), value.Text("SILVER")})
	needle := value.Text("GOLD")
	ok, err := CompareWordOp("contains", list, &needle)
	require.NoError(t, err)
	require.True(t, ok)

	missing := value.Text("BRONZE")
	ok, err = CompareWordOp("contains", list, &missing)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompareWordOpContainsSubstring(t *testing.T) {
	needle := value.Text("ell")
	ok, err := CompareWordOp("contains", value.Text("hello"), &needle)
	require.NoError(t, err)
	require.True(t, ok)
}
